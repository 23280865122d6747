package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"schoolclock/internal/config"
	"schoolclock/internal/document"
	"schoolclock/internal/ics"
	appLog "schoolclock/internal/log"
	"schoolclock/internal/migrate"
	"schoolclock/internal/model"
	"schoolclock/internal/resolve"
	"schoolclock/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	at         string
	division   string
	migrate    string
	out        string
}

func main() {
	flags := parseFlags()

	if flags.migrate != "" {
		if err := runMigrate(flags.migrate, flags.out, time.Now()); err != nil {
			appLog.Error("migration failed", err, "input", flags.migrate)
			os.Exit(1)
		}
		return
	}

	appLog.Info("schoolclock starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file when set.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.division != "" {
		conf.Division = flags.division
	}
	if err = conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if level, ok := appLog.ParseLevel(conf.LogLevel); ok {
		appLog.SetLevel(level)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"document", conf.Document,
		"division", conf.Division,
		"refresh", conf.RefreshCron,
		"watch", conf.Watch,
		"holidays", len(conf.Holidays),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	loc := conf.Location()
	store := document.NewStore(document.Options{
		Path:     conf.Document,
		Holidays: holidays(conf.Holidays),
		Fetcher:  ics.NewFetcher(conf.CacheDir, conf.FetchTimeout.Duration),
		Location: loc,
	})
	if err = store.Reload(ctx); err != nil {
		appLog.Error("failed to load document", err, "path", conf.Document)
		os.Exit(1)
	}

	engine := resolve.New(nil)
	engine.Fallback = loc

	if flags.once {
		at := time.Now()
		if flags.at != "" {
			if at, err = time.Parse(time.RFC3339, flags.at); err != nil {
				appLog.Error("bad -at value", err, "at", flags.at)
				os.Exit(2)
			}
		}
		printSnapshot(os.Stdout, engine, store.Current(), at, conf.Division)
		return
	}

	scheduler := cron.New(cron.WithLocation(loc))
	if _, err = scheduler.AddFunc(conf.RefreshCron, func() {
		if rerr := store.Reload(ctx); rerr != nil {
			appLog.Error("scheduled reload failed", rerr, "path", conf.Document)
		}
	}); err != nil {
		appLog.Error("bad refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	if conf.Watch {
		go func() {
			if werr := store.Watch(ctx); werr != nil {
				appLog.Error("document watch stopped", werr, "path", conf.Document)
			}
		}()
	}

	srv := web.NewServer(conf, store, engine)
	if err = srv.Serve(ctx); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		os.Exit(1)
	}

	appLog.Info("schoolclock exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/schoolclock/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Print what is happening now and exit")
	flag.StringVar(&cfg.at, "at", "", "With -once, resolve at this RFC 3339 time instead of now")
	flag.StringVar(&cfg.division, "division", "", "Division id (overrides config if set)")
	flag.StringVar(&cfg.migrate, "migrate", "", "Convert this version 1 JSON document to version 2 and exit")
	flag.StringVar(&cfg.out, "out", "", "With -migrate, write the result here instead of stdout")

	flag.Parse()

	return cfg
}

func holidays(in []config.HolidayConfig) []document.Holiday {
	out := make([]document.Holiday, 0, len(in))
	for _, h := range in {
		out = append(out, document.Holiday{Path: h.Path, URL: h.URL, Schedule: h.Schedule})
	}
	return out
}

// runMigrate converts the legacy document at in. The result goes to out,
// or to stdout as JSON when out is empty.
func runMigrate(in, out string, now time.Time) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	legacy := &model.LegacyDocument{}
	if err = json.Unmarshal(data, legacy); err != nil {
		return fmt.Errorf("parsing %s: %w", in, err)
	}
	if legacy.Version > 1 {
		return fmt.Errorf("%s is already version %d", in, legacy.Version)
	}

	doc := migrate.V1ToV2(legacy, now)
	if out != "" {
		return document.Save(out, doc)
	}

	encoded, err := document.Encode(doc, document.JSON)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(encoded)
	return err
}

func printSnapshot(w io.Writer, e *resolve.Engine, doc *model.Document, at time.Time, division string) {
	snap := e.Snapshot(doc, at, division)

	fmt.Fprintf(w, "%s (%s)\n", snap.SchoolName, snap.ShortName)
	fmt.Fprintf(w, "%s\n", snap.At.Format("Mon Jan 2, 2006 3:04:05 PM MST"))

	sched := snap.Schedule.Label
	if snap.Schedule.IsOverride() {
		sched += " (" + snap.Schedule.Override.Occasion + ")"
	}
	fmt.Fprintf(w, "Schedule: %s\n", sched)

	if p := snap.Period; p != nil {
		line := "Period: " + p.Label
		if !p.HideStart {
			line += ", " + resolve.FormatDiff(snap.Elapsed) + " elapsed"
		}
		if !p.HideEnd {
			line += ", " + resolve.FormatDiff(snap.Remaining) + " left"
		}
		fmt.Fprintln(w, line)
	} else {
		fmt.Fprintln(w, "Period: none")
	}

	for _, a := range snap.Announcements {
		fmt.Fprintf(w, "Announcement: %s\n", a.Message)
	}
}
