package portscan

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

var errProxyRefused = errors.New("proxy refused connection")

// Dialer opens TCP connections for probes. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialer returns a direct dialer, or a proxy dialer when proxyAddr is set.
// Supported schemes: socks5, http.
func NewDialer(proxyAddr string) (Dialer, error) {
	if proxyAddr == "" {
		return &net.Dialer{}, nil
	}

	proxyURL, err := url.Parse(proxyAddr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid proxy URL")
	}

	switch proxyURL.Scheme {
	case "http":
		return newHttpProxyDialer(proxyURL), nil
	case "socks5", "socks5h":
		d, err := proxy.FromURL(proxyURL, proxy.Direct)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create proxy dialer")
		}
		if cd, ok := d.(proxy.ContextDialer); ok {
			return cd, nil
		}
		return &contextDialer{d: d}, nil
	default:
		return nil, errors.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
}

// contextDialer adapts a proxy.Dialer that has no DialContext.
type contextDialer struct {
	d proxy.Dialer
}

func (c *contextDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	type dialRes struct {
		c net.Conn
		e error
	}
	ch := make(chan dialRes, 1)
	go func() {
		conn, err := c.d.Dial(network, address)
		ch <- dialRes{conn, err}
	}()

	select {
	case res := <-ch:
		return res.c, res.e
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.c != nil {
				res.c.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

type httpProxyDialer struct {
	proxyAddr string
	dialer    net.Dialer
}

func newHttpProxyDialer(proxyURL *url.URL) *httpProxyDialer {
	return &httpProxyDialer{proxyAddr: proxyURL.Host}
}

func (h *httpProxyDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := h.dialer.DialContext(ctx, "tcp", h.proxyAddr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	req := &http.Request{
		Method: "CONNECT",
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	// no proxy auth support
	if err = req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		conn.Close()
		return nil, errors.Wrap(errProxyRefused, resp.Status)
	}

	conn.SetDeadline(time.Time{})
	return &bufferedConn{Conn: conn, r: br}, nil
}

type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}
