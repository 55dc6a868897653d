package portscan

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func TestNewDialer(t *testing.T) {
	d, err := NewDialer("")
	if err != nil {
		t.Fatalf("NewDialer direct: %v", err)
	}
	if _, ok := d.(*net.Dialer); !ok {
		t.Fatalf("expected *net.Dialer, got %T", d)
	}

	if _, err := NewDialer("socks5://127.0.0.1:1080"); err != nil {
		t.Fatalf("NewDialer socks5: %v", err)
	}
	if _, ok := mustDialer(t, "http://127.0.0.1:8080").(*httpProxyDialer); !ok {
		t.Fatalf("expected http proxy dialer")
	}
	if _, err := NewDialer("ftp://127.0.0.1:21"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func mustDialer(t *testing.T, addr string) Dialer {
	t.Helper()
	d, err := NewDialer(addr)
	if err != nil {
		t.Fatalf("NewDialer(%q): %v", addr, err)
	}
	return d
}

// serveConnectProxy answers CONNECT requests with status and, when the
// tunnel is accepted, sends banner as if it came from the target.
func serveConnectProxy(ln net.Listener, status int, banner string) {
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				req, err := http.ReadRequest(bufio.NewReader(c))
				if err != nil || req.Method != http.MethodConnect {
					return
				}
				resp := &http.Response{StatusCode: status, ProtoMajor: 1, ProtoMinor: 1, Request: req}
				_ = resp.Write(c)
				if status == http.StatusOK {
					_, _ = c.Write([]byte(banner))
				}
			}(c)
		}
	}()
}

func TestHttpProxyDialer(t *testing.T) {
	ln, port := listenLoopback(t)
	serveConnectProxy(ln, http.StatusOK, "220 via proxy\r\n")

	d := mustDialer(t, "http://127.0.0.1:"+strconv.Itoa(port))
	res, anomaly := NewProber(d, time.Second).probe(context.Background(), "192.0.2.1", 21, time.Second)
	if anomaly != nil {
		t.Fatalf("unexpected anomaly: %v", anomaly)
	}
	if !res.Open || res.Banner != "220 via proxy" || res.Service != "FTP" {
		t.Fatalf("unexpected result through proxy: %+v", res)
	}
}

func TestHttpProxyDialerRefused(t *testing.T) {
	ln, port := listenLoopback(t)
	serveConnectProxy(ln, http.StatusForbidden, "")

	d := mustDialer(t, "http://127.0.0.1:"+strconv.Itoa(port))
	res, anomaly := NewProber(d, time.Second).probe(context.Background(), "192.0.2.1", 22, time.Second)
	if res.Open || res.State != PortStateClosed {
		t.Fatalf("expected closed, got %+v", res)
	}
	if anomaly != nil {
		t.Fatalf("refused tunnel is not an anomaly: %v", anomaly)
	}
}
