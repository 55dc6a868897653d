package portscan

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

const (
	DefaultBannerTimeout = 2 * time.Second
	bannerReadSize       = 1024
)

// Prober performs single connect-and-read probes against a resolved IP.
type Prober struct {
	dialer        Dialer
	bannerTimeout time.Duration
}

func NewProber(dialer Dialer, bannerTimeout time.Duration) *Prober {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if bannerTimeout <= 0 {
		bannerTimeout = DefaultBannerTimeout
	}
	return &Prober{dialer: dialer, bannerTimeout: bannerTimeout}
}

// Probe connects to ip:port within timeout and grabs a banner if one is
// sent. It never fails: every failure is reported as a non-open result.
func (p *Prober) Probe(ctx context.Context, ip string, port int, timeout time.Duration) ProbeResult {
	res, _ := p.probe(ctx, ip, port, timeout)
	return res
}

// probe also returns connect errors that are not an ordinary closed or
// filtered outcome, so the caller can account for them.
func (p *Prober) probe(ctx context.Context, ip string, port int, timeout time.Duration) (ProbeResult, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	address := net.JoinHostPort(ip, strconv.Itoa(port))
	conn, err := p.dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		state, anomaly := classifyDialError(ctx, err)
		return closedResult(port, state), anomaly
	}
	defer conn.Close()

	// scan cancellation must not wait out the banner timeout
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	return ProbeResult{
		Port:    port,
		Open:    true,
		State:   PortStateOpen,
		Service: ServiceName(port),
		Banner:  p.readBanner(conn),
	}, nil
}

func (p *Prober) readBanner(conn net.Conn) string {
	if err := conn.SetReadDeadline(time.Now().Add(p.bannerTimeout)); err != nil {
		return ""
	}
	buf := make([]byte, bannerReadSize)
	n, _ := conn.Read(buf)
	if n <= 0 {
		return ""
	}
	return decodeBanner(buf[:n])
}

// illFormedDropper copies valid UTF-8 and skips every byte that does not
// start a valid sequence. A U+FFFD sent by the peer is kept.
type illFormedDropper struct {
	transform.NopResetter
}

func (illFormedDropper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}

// decodeBanner decodes b as UTF-8, discarding undecodable bytes. Each call
// gets its own transformer; probes decode concurrently.
func decodeBanner(b []byte) string {
	s, _, err := transform.Bytes(illFormedDropper{}, b)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(s))
}

func classifyDialError(ctx context.Context, err error) (PortState, error) {
	switch {
	case ctx.Err() != nil:
		return PortStateClosed, nil
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET), errors.Is(err, errProxyRefused):
		return PortStateClosed, nil
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		return PortStateFiltered, nil
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return PortStateFiltered, nil
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Timeout() {
		return PortStateFiltered, nil
	}
	if strings.Contains(err.Error(), "refused") {
		return PortStateClosed, nil
	}
	return PortStateClosed, err
}
