package portscan

import (
	"context"
	"errors"
	"net"
	"testing"

	errorutil "github.com/zan8in/portprobe/pkg/errors"
)

func TestExtractHost(t *testing.T) {
	cases := map[string]string{
		"example.com":                     "example.com",
		"  example.com  ":                 "example.com",
		"example.com:8080":                "example.com",
		"https://user:pw@example.com/a?b": "example.com",
		"10.0.0.1":                        "10.0.0.1",
		"10.0.0.1:22":                     "10.0.0.1",
		"::1":                             "::1",
		"[::1]":                           "::1",
		"[2001:db8::1]:443":               "2001:db8::1",
		"":                                "",
	}
	for in, want := range cases {
		if got := ExtractHost(in); got != want {
			t.Fatalf("ExtractHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveHostLiteral(t *testing.T) {
	for _, host := range []string{"127.0.0.1", "http://127.0.0.1:8080/", "[::1]"} {
		ip, err := ResolveHost(context.Background(), host)
		if err != nil {
			t.Fatalf("ResolveHost(%q): %v", host, err)
		}
		if parsed := net.ParseIP(ip); parsed == nil || !parsed.IsLoopback() {
			t.Fatalf("ResolveHost(%q) = %q", host, ip)
		}
	}
}

func TestResolveHostEmpty(t *testing.T) {
	if _, err := ResolveHost(context.Background(), "   "); !errors.Is(err, errorutil.ErrEmptyHost) {
		t.Fatalf("expected ErrEmptyHost, got %v", err)
	}
}

func TestResolveHostUnknown(t *testing.T) {
	if _, err := ResolveHost(context.Background(), "does-not-exist.invalid"); err == nil {
		t.Fatalf("expected resolution error")
	}
}
