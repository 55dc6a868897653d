package config

import (
	"net"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	SOCKS5  = "socks5"
	SOCKS5H = "socks5h"
	HTTP    = "http"
)

func validateProxyURL(proxy string) (*url.URL, error) {
	if u, err := url.Parse(proxy); err == nil && isSupportedProtocol(u.Scheme) && u.Host != "" {
		return u, nil
	}
	return nil, errors.New("invalid proxy format (It should be http/socks5://[username:password@]host:port), ProxyURL: " + proxy)
}

// isSupportedProtocol checks given protocols are supported
func isSupportedProtocol(value string) bool {
	return value == HTTP || value == SOCKS5 || value == SOCKS5H
}

// CheckProxyReachable dials the proxy server itself once.
func CheckProxyReachable(proxy string, timeout time.Duration) error {
	u, err := validateProxyURL(proxy)
	if err != nil {
		return err
	}
	conn, err := net.DialTimeout("tcp", u.Host, timeout)
	if err != nil {
		return errors.Wrapf(err, "proxy %s is not reachable", u.Host)
	}
	return conn.Close()
}
