package portscan

import (
	"context"
	"net"
	"net/url"
	"strings"

	iputil "github.com/zan8in/pins/ip"
	errorutil "github.com/zan8in/portprobe/pkg/errors"
)

// ResolveHost turns host into a single IP address. Literal addresses are
// returned unchanged; names are looked up once, preferring IPv4. A URL or
// host:port is reduced to its host part first.
func ResolveHost(ctx context.Context, host string) (string, error) {
	host = ExtractHost(host)
	if host == "" {
		return "", errorutil.ErrEmptyHost
	}
	if iputil.IsIP(host) {
		return host, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", errorutil.NewResolveError(host, err)
	}
	if len(addrs) == 0 {
		return "", errorutil.NewResolveError(host, &net.DNSError{Err: "no addresses", Name: host, IsNotFound: true})
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			return a.IP.String(), nil
		}
	}
	return addrs[0].IP.String(), nil
}

// ExtractHost strips scheme, credentials, port, path and IPv6 brackets from
// target, leaving the bare host name or address.
func ExtractHost(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	if iputil.IsIP(strings.Trim(target, "[]")) {
		return strings.Trim(target, "[]")
	}

	if !strings.Contains(target, "://") {
		target = "tcp://" + target
	}
	u, err := url.Parse(target)
	if err != nil {
		return strings.TrimPrefix(target, "tcp://")
	}
	return u.Hostname()
}
