package portscan

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultConcurrency = 50
	DefaultTimeout     = 1 * time.Second
)

// Options configuration for the port scanner
type Options struct {
	Proxy         string        // socks5:// or http:// proxy for probes
	BannerTimeout time.Duration // read window for banners after connect
	Dialer        Dialer        // overrides Proxy when set
	Logger        *zap.Logger   // receives probe anomalies
	Quiet         bool
}

// DefaultOptions returns a safe default configuration
func DefaultOptions() *Options {
	return &Options{
		BannerTimeout: DefaultBannerTimeout,
	}
}
