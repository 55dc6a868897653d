package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/zan8in/gologger"
	"github.com/zan8in/portprobe/pkg/config"
	"github.com/zan8in/portprobe/pkg/db"
	"github.com/zan8in/portprobe/pkg/db/postgres"
	"github.com/zan8in/portprobe/pkg/db/sqlite"
	errorutil "github.com/zan8in/portprobe/pkg/errors"
	"github.com/zan8in/portprobe/pkg/log"
	"github.com/zan8in/portprobe/pkg/portscan"
	"github.com/zan8in/portprobe/pkg/progress"
	"github.com/zan8in/portprobe/pkg/report"
	"go.uber.org/zap"
)

type Runner struct {
	options *config.Options
	scanner *portscan.Scanner
	json    *report.JsonReport
	store   *db.Store

	in  io.Reader
	out io.Writer
	bar io.Writer
}

// New prepares the scanner and every output selected in options.
func New(options *config.Options) (*Runner, error) {
	runner := &Runner{
		options: options,
		in:      os.Stdin,
		out:     os.Stdout,
		bar:     os.Stderr,
	}

	log.SetLogFile(options.LogFile)

	// output to json file
	if len(options.Json) > 0 {
		jr, err := report.NewJsonReport(options.Json)
		if err != nil {
			return nil, err
		}
		runner.json = jr
	}

	// output to sqlite file or postgres
	if len(options.Database) > 0 {
		var store *db.Store
		var err error
		if postgres.IsDSN(options.Database) {
			store, err = postgres.NewPostgresDB(options.Database)
		} else {
			store, err = sqlite.NewSqliteDB(options.Database)
		}
		if err != nil {
			return nil, errors.Wrap(err, "could not open database")
		}
		runner.store = store
	}

	scanner, err := portscan.NewScanner(&portscan.Options{
		Proxy:         options.Proxy,
		BannerTimeout: portscan.DefaultBannerTimeout,
		Logger:        log.Log(),
		Quiet:         options.Silent,
	})
	if err != nil {
		runner.Close()
		return nil, err
	}
	runner.scanner = scanner

	return runner, nil
}

func (r *Runner) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			gologger.Error().Msgf("Could not close database: %s", err)
		}
	}
	log.Sync()
}

// Run collects the target, scans it and writes the report to every
// selected output.
func (r *Runner) Run(ctx context.Context) error {
	if r.options.History() {
		return r.history(ctx)
	}

	if !r.options.Silent {
		ShowBanner2(r.out)
	}

	target, err := r.collectTarget(ctx)
	if err != nil {
		return err
	}

	if r.options.Proxy != "" {
		if err := config.CheckProxyReachable(r.options.Proxy, target.Timeout); err != nil {
			return err
		}
		gologger.Info().Msgf("Probes are sent through proxy %s", r.options.Proxy)
	}

	if !r.options.Silent {
		fmt.Fprintf(r.out, "\nScanning %d port(s) on %s...\n", len(target.Ports), target.IP)
		fmt.Fprintf(r.out, "Using %d threads with %ss timeout per connection\n\n",
			target.Concurrency, strconv.FormatFloat(target.Timeout.Seconds(), 'f', -1, 64))
	}

	var bar *progress.Bar
	if !r.options.Silent {
		bar = progress.NewBar(r.bar, 40, 50)
	}

	rep, err := r.scanner.Scan(ctx, target, func(result portscan.ProbeResult, completed, total int) {
		if result.Open {
			if bar != nil {
				bar.Clear()
			}
			service := result.Service
			if service == "" {
				service = "Unknown Service"
			}
			fmt.Fprintf(r.out, "[+] Port %d is %s - %s\n", result.Port, log.LogColor.Open("OPEN"), log.LogColor.Service(service))
		}
		if bar != nil {
			bar.Update(completed, total)
		}
	})
	if err != nil {
		if bar != nil {
			bar.Clear()
		}
		return err
	}

	report.Render(r.out, rep)

	return r.save(ctx, rep)
}

func (r *Runner) collectTarget(ctx context.Context) (*portscan.ScanTarget, error) {
	interactive := r.options.Interactive()
	var prompter *Prompter
	if interactive {
		prompter = NewPrompter(r.in, r.out)
	}

	var host, ip string
	var err error
	if r.options.Target != "" {
		host = r.options.Target
		if ip, err = portscan.ResolveHost(ctx, host); err != nil {
			if ctx.Err() != nil {
				return nil, errorutil.ErrScanInterrupted
			}
			return nil, err
		}
	} else if host, ip, err = prompter.Host(ctx, portscan.ResolveHost); err != nil {
		return nil, err
	}
	if host != ip {
		gologger.Debug().Msgf("Resolved %s to %s", host, ip)
	}

	var ports []int
	if r.options.Ports != "" {
		var warnings []error
		ports, warnings = portscan.ParsePorts(r.options.Ports)
		for _, w := range warnings {
			gologger.Warning().Msgf("%s", w)
		}
		if len(ports) == 0 {
			return nil, errorutil.ErrNoPorts
		}
	} else if ports, err = prompter.Ports(ctx); err != nil {
		return nil, err
	}

	concurrency := r.options.Concurrency
	timeout := r.options.ConnectTimeout()
	if interactive {
		if concurrency, err = prompter.Threads(ctx, concurrency); err != nil {
			return nil, err
		}
		if timeout, err = prompter.Timeout(ctx, timeout); err != nil {
			return nil, err
		}
	}

	return portscan.NewScanTarget(host, ip, ports, timeout, concurrency)
}

func (r *Runner) save(ctx context.Context, rep *portscan.ScanReport) error {
	if r.json != nil {
		if err := r.json.Write(rep); err != nil {
			log.Error("could not write json report", zap.String("scan", rep.ID), zap.String("file", r.json.ReportFile), zap.Error(err))
			return err
		}
		gologger.Info().Msgf("Scan report written to %s", r.json.ReportFile)
	}

	if r.store != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := r.store.SaveReport(saveCtx, rep); err != nil {
			log.Error("could not store scan report", zap.String("scan", rep.ID), zap.Error(err))
			return errors.Wrap(err, "could not store scan report")
		}
		gologger.Info().Msgf("Scan %s stored in database", rep.ID)
	}
	return nil
}

// history prints scans stored by earlier runs: one scan's open ports with
// -show, otherwise the scan list.
func (r *Runner) history(ctx context.Context) error {
	if r.store == nil {
		return errors.New("-list and -show need a database, eg: -db portprobe.db")
	}

	if r.options.ShowScan != "" {
		rows, err := r.store.GetResults(ctx, r.options.ShowScan, true)
		if err != nil {
			return errors.Wrapf(err, "could not read scan %s", r.options.ShowScan)
		}
		if len(rows) == 0 {
			fmt.Fprintf(r.out, "No open ports stored for scan %s.\n", r.options.ShowScan)
			return nil
		}
		fmt.Fprintf(r.out, "%-10s %-10s %-20s %-40s\n", "Port", "Status", "Service", "Banner")
		for _, row := range rows {
			service, banner := row.Service, row.Banner
			if service == "" {
				service = "Unknown"
			}
			if banner == "" {
				banner = "No banner"
			}
			fmt.Fprintf(r.out, "%-10d %-10s %-20s %-40s\n", row.Port, "OPEN", service, report.TruncateBanner(banner))
		}
		return nil
	}

	scans, err := r.store.ListScans(ctx, r.options.Target, 0)
	if err != nil {
		return errors.Wrap(err, "could not list scans")
	}
	total, err := r.store.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "could not count scans")
	}

	fmt.Fprintf(r.out, "%-20s %-19s %-24s %-16s %6s %5s %8s\n", "ID", "Created", "Host", "IP", "Ports", "Open", "Seconds")
	for _, s := range scans {
		fmt.Fprintf(r.out, "%-20s %-19s %-24s %-16s %6d %5d %8.2f\n", s.ID, s.Created, s.Host, s.IP, s.Ports, s.OpenCount, s.Elapsed)
	}
	fmt.Fprintf(r.out, "%d of %d stored scan(s) shown\n", len(scans), total)
	return nil
}
