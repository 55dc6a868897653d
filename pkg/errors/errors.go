package errors

import "github.com/pkg/errors"

var (
	ErrScanInterrupted = errors.New("scan interrupted")
	ErrNoPorts         = errors.New("no valid ports to scan")
	ErrEmptyHost       = errors.New("target host is empty")
)

func NewResolveError(host string, err error) error {
	return errors.Wrapf(err, "could not resolve host %s", host)
}

func NewPortTokenError(token, reason string) error {
	return errors.Errorf("invalid port token %q: %s", token, reason)
}
