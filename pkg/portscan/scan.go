package portscan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/zan8in/gologger"
	errorutil "github.com/zan8in/portprobe/pkg/errors"
	"go.uber.org/zap"
)

// Scanner is the main entry point for port scanning
type Scanner struct {
	options *Options
	prober  *Prober
	logger  *zap.Logger
}

// NewScanner creates a new scanner instance
func NewScanner(opt *Options) (*Scanner, error) {
	if opt == nil {
		opt = DefaultOptions()
	}

	dialer := opt.Dialer
	if dialer == nil {
		d, err := NewDialer(opt.Proxy)
		if err != nil {
			return nil, err
		}
		dialer = d
	}

	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scanner{
		options: opt,
		prober:  NewProber(dialer, opt.BannerTimeout),
		logger:  logger,
	}, nil
}

type scanTask struct {
	ip      string
	port    int
	timeout time.Duration
}

type probeOutcome struct {
	result  ProbeResult
	anomaly error
}

// Scan probes every port of target with at most target.Concurrency probes in
// flight. Results are collected in completion order; onProgress, if set, is
// called from the calling goroutine after each one.
//
// If ctx is cancelled before the report is complete, Scan stops dispatching,
// aborts in-flight probes, waits for them to exit and returns
// ErrScanInterrupted without a report.
func (s *Scanner) Scan(ctx context.Context, target *ScanTarget, onProgress ProgressFunc) (*ScanReport, error) {
	if target == nil || len(target.Ports) == 0 {
		return nil, errorutil.ErrNoPorts
	}

	total := len(target.Ports)
	results := make(chan probeOutcome, total)

	scanCtx, scanStop := context.WithCancel(ctx)
	defer scanStop()

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(target.Concurrency, func(i interface{}) {
		defer wg.Done()
		results <- s.runTask(scanCtx, i.(scanTask))
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create worker pool")
	}
	defer pool.Release()

	startTime := time.Now()
	if !s.options.Quiet {
		gologger.Info().Msgf("%-18s | %-9s | host=%s ip=%s ports=%d workers=%d", "Port scan", "started", target.Host, target.IP, total, target.Concurrency)
	}

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		for _, port := range target.Ports {
			if scanCtx.Err() != nil {
				return
			}
			task := scanTask{ip: target.IP, port: port, timeout: target.Timeout}
			wg.Add(1)
			if err := pool.Invoke(task); err != nil {
				wg.Done()
				results <- probeOutcome{
					result:  closedResult(port, PortStateClosed),
					anomaly: errors.Wrap(err, "submit probe"),
				}
			}
		}
	}()

	abort := func() (*ScanReport, error) {
		scanStop()
		<-dispatchDone
		wg.Wait()
		if !s.options.Quiet {
			gologger.Warning().Msgf("%-18s | %-9s | results discarded", "Port scan", "interrupted")
		}
		return nil, errorutil.ErrScanInterrupted
	}

	report := &ScanReport{
		ID:        xid.New().String(),
		Host:      target.Host,
		IP:        target.IP,
		Results:   make([]ProbeResult, 0, total),
		StartedAt: startTime,
	}

	for completed := 0; completed < total; {
		select {
		case <-ctx.Done():
			return abort()
		case out := <-results:
			completed++
			report.Results = append(report.Results, out.result)
			if out.anomaly != nil {
				report.Anomalies++
				s.logger.Warn("probe anomaly",
					zap.String("ip", target.IP),
					zap.Int("port", out.result.Port),
					zap.Error(out.anomaly),
				)
			}
			if onProgress != nil {
				onProgress(out.result, completed, total)
			}
		}
	}
	report.Elapsed = time.Since(startTime)

	// probes aborted by a late cancellation look closed; do not report them
	if ctx.Err() != nil {
		return abort()
	}

	<-dispatchDone
	wg.Wait()

	if !s.options.Quiet {
		gologger.Info().Msgf("%-18s | %-9s | ports=%d open=%d duration=%s",
			"Port scan",
			"completed",
			total,
			len(report.OpenResults()),
			report.Elapsed.Truncate(time.Millisecond),
		)
	}

	return report, nil
}

func (s *Scanner) runTask(ctx context.Context, task scanTask) (out probeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = probeOutcome{
				result:  closedResult(task.port, PortStateClosed),
				anomaly: fmt.Errorf("probe panic: %v", r),
			}
		}
	}()

	select {
	case <-ctx.Done():
		return probeOutcome{result: closedResult(task.port, PortStateClosed)}
	default:
	}

	res, err := s.prober.probe(ctx, task.ip, task.port, task.timeout)
	return probeOutcome{result: res, anomaly: err}
}
