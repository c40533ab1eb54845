// Companion extracts programming tasks from online judge pages and hands them
// to local tools as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"companion/config"
	"companion/fetcher"
	"companion/history"
	"companion/judges"
	"companion/sites"
	"companion/task"
	"companion/transport"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errExtract prefixes every failure to turn a page into a task.
var errExtract = errors.New("could not extract task from this page")

type options struct {
	configPath string
	file       string
	render     bool
	send       bool
	list       bool
	history    int
	debug      bool
	initConfig bool
	url        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("companion", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "config file (default ~/.config/companion/config.toml)")
	fs.StringVar(&o.file, "file", "", "read page HTML from `path` instead of fetching the URL")
	fs.BoolVar(&o.render, "render", false, "load the page in headless Chrome")
	fs.BoolVar(&o.send, "send", false, "send the task to receiving tools on localhost")
	fs.BoolVar(&o.list, "list", false, "list judges and the URLs they accept")
	fs.IntVar(&o.history, "history", 0, "print the last `n` extracted tasks")
	fs.BoolVar(&o.debug, "debug", false, "debug logging")
	fs.BoolVar(&o.initConfig, "init-config", false, "print the default config")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Companion - extract judge tasks

Usage: companion [options] <url>

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), `
Examples:
  companion https://codeforces.com/contest/4/problem/A
  companion -send https://atcoder.jp/contests/abc086/tasks/abc086_a
  companion -file page.html https://www.luogu.com.cn/problem/P1001
  companion -init-config > ~/.config/companion/config.toml
`)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.url = fs.Arg(0)
	return &o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	// Generate default config and exit
	if o.initConfig {
		fmt.Fprint(stdout, config.DefaultTOML())
		return nil
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if o.debug {
		cfg.Log.Debug = true
	}
	if o.render {
		cfg.Fetcher.Render = true
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	registry, err := sites.NewRegistry(judges.Enabled(cfg.Judges.Disabled), sites.WithLogger(logger))
	if err != nil {
		return err
	}

	switch {
	case o.list:
		return listJudges(stdout, registry)
	case o.history > 0:
		return printHistory(ctx, stdout, cfg, o.history)
	case o.url == "":
		return errors.New("no URL given (see -h)")
	}

	tk, judge, err := extract(ctx, o, cfg, registry, logger)
	if err != nil {
		return fmt.Errorf("%w: %w", errExtract, err)
	}

	out, err := json.MarshalIndent(tk, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}
	fmt.Fprintln(stdout, string(out))

	if cfg.History.Enabled {
		if err := record(ctx, cfg, judge, tk); err != nil {
			logger.Warn("could not record task", zap.Error(err))
		}
	}

	if o.send {
		sender := transport.New(transport.Options{
			Ports:   cfg.Transport.Ports,
			Timeout: time.Duration(cfg.Transport.TimeoutMs) * time.Millisecond,
		}, logger)
		if _, err := sender.Send(ctx, tk); err != nil {
			return err
		}
	}
	return nil
}

func initLogger(c config.Log) (*zap.Logger, error) {
	if c.Silent {
		return zap.NewNop(), nil
	}
	if c.Release {
		return zap.NewProduction()
	}
	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !c.Debug {
		zc.Level.SetLevel(zap.InfoLevel)
	}
	return zc.Build()
}

// extract loads the page for o.url and runs the matching judge over it.
func extract(ctx context.Context, o *options, cfg *config.Config, registry *sites.Registry, logger *zap.Logger) (*task.Task, string, error) {
	if !registry.HasParser(o.url) {
		return nil, "", fmt.Errorf("%w %s", sites.ErrNoParser, o.url)
	}

	var page string
	if o.file != "" {
		b, err := os.ReadFile(o.file)
		if err != nil {
			return nil, "", err
		}
		page = string(b)
	} else {
		f := fetcher.New(fetcher.Options{
			UserAgent:      cfg.Fetcher.UserAgent,
			TimeoutSeconds: cfg.Fetcher.TimeoutSeconds,
			ChromePath:     cfg.Fetcher.ChromePath,
			AlwaysRender:   cfg.Fetcher.Render,
		}, logger)
		result, err := f.Smart(ctx, o.url)
		if err != nil {
			return nil, "", err
		}
		logger.Debug("page loaded",
			zap.String("final_url", result.FinalURL),
			zap.Bool("browser", result.UsedBrowser),
			zap.Duration("took", result.FetchTime))
		page = result.HTML
	}

	return registry.Parse(ctx, o.url, page)
}

func record(ctx context.Context, cfg *config.Config, judge string, tk *task.Task) error {
	path, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, judge, tk)
}

func listJudges(w io.Writer, registry *sites.Registry) error {
	for _, name := range registry.Names() {
		fmt.Fprintf(w, "%s\n", name)
		for _, p := range registry.Patterns(name) {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	return nil
}

func printHistory(ctx context.Context, w io.Writer, cfg *config.Config, n int) error {
	path, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(ctx, n)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-10s %s  (%d ms, %d MB, %d tests)\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Judge, strings.TrimSpace(e.Name),
			e.TimeLimitMs, e.MemoryLimitMb, len(e.Tests))
		if e.URL != "" {
			fmt.Fprintf(w, "  %s\n", e.URL)
		}
	}
	return nil
}
