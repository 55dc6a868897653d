package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/zan8in/gologger"
	"github.com/zan8in/gologger/levels"
	"github.com/zan8in/portprobe/internal/runner"
	"github.com/zan8in/portprobe/pkg/config"
	errorutil "github.com/zan8in/portprobe/pkg/errors"
	"github.com/zan8in/portprobe/pkg/log"
)

func main() {
	options, err := config.ParseOptions()
	if err != nil {
		gologger.Error().Msgf("%s", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, options)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, options *config.Options) int {
	if options.Debug {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
	if options.NoColor {
		log.DisableColor()
	}

	c, err := config.NewConfig(options.ConfigFile)
	if err != nil {
		gologger.Error().Msgf("Could not load configuration: %s", err)
		return 1
	}
	options.ApplyConfig(c)

	if err := options.Verify(); err != nil {
		gologger.Error().Msgf("%s", err)
		return 1
	}

	r, err := runner.New(options)
	if err != nil {
		gologger.Error().Msgf("%s", err)
		return 1
	}
	defer r.Close()

	err = r.Run(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errorutil.ErrScanInterrupted), errors.Is(err, context.Canceled):
		fmt.Println("\n\nScan interrupted by user. Exiting...")
		return 0
	default:
		gologger.Error().Msgf("An error occurred: %s", err)
		return 1
	}
}
