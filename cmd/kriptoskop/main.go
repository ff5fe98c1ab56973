package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/kriptoskop/kriptoskop/pkg/aggregator"
	"github.com/kriptoskop/kriptoskop/pkg/config"
	"github.com/kriptoskop/kriptoskop/pkg/content"
	"github.com/kriptoskop/kriptoskop/pkg/feed"
	"github.com/kriptoskop/kriptoskop/pkg/store"
	"github.com/kriptoskop/kriptoskop/pkg/translate"
	"github.com/kriptoskop/kriptoskop/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"config file path"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	setupLog(opts.Debug, cfg.LLM.APIKey)

	log.Printf("[INFO] starting kriptoskop version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts); err != nil {
		log.Printf("[ERROR] server failed: %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, opts Opts) error {
	fetchers := make([]aggregator.Fetcher, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		fetchers = append(fetchers, feed.NewSourceFetcher(feed.Source{
			Name:    src.Name,
			FeedURL: src.FeedURL,
			PageURL: src.PageURL,
			Weight:  src.Weight,
		}, cfg.Scrape.Timeout))
	}
	log.Printf("[INFO] configured %d sources", len(fetchers))

	extractor := content.NewExtractor(cfg.Scrape.Timeout, cfg.Scrape.MinTextLength)

	// backfill visits use a shorter timeout, one slow page should not eat
	// the batch budget
	imageFinder := content.NewExtractor(cfg.Images.Timeout, cfg.Scrape.MinTextLength)
	agg := aggregator.New(fetchers, imageFinder, cfg.Images.BackfillLimit, cfg.Images.BackfillBatch)

	translator := translate.New(translate.Config{
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Retries:     cfg.LLM.Retries,
		RetryDelay:  cfg.LLM.RetryDelay,
	})

	cache, err := store.New(store.Config{
		DSN:             cfg.Cache.DSN,
		MaxOpenConns:    cfg.Cache.MaxOpenConns,
		MaxIdleConns:    cfg.Cache.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Cache.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open translation cache: %w", err)
	}
	defer cache.Close()

	srv := server.New(server.Config{
		Listen:  cfg.Server.Listen,
		Timeout: cfg.Server.Timeout,
		Version: revision,
		Debug:   opts.Debug,
	}, agg, extractor, translator, cache)

	return srv.Run(ctx)
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = append(logOpts, lgr.Debug)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	for _, s := range secs {
		if s != "" {
			logOpts = append(logOpts, lgr.Secret(s))
		}
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
