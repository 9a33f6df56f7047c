package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/TudorHulban/tymbox"
	"github.com/TudorHulban/tymbox/config"
)

const _Usage = `usage: tymbox [-config file] [-plan file] [-now HH:MM] <command> [flags]

commands:
  show
  append    -name -duration [-pref] [-anchor HH:MM] [-card id]
  insert    -name -start HH:MM -duration [-pref] [-anchor HH:MM] [-card id]
  interrupt -name -duration [-pref] [-comeback]
  move      -pos -by
  resize    -pos -by
  remove    -pos
  free      -duration [-from HH:MM] [-latest]
  watch
`

type app struct {
	scheduler *tymbox.Scheduler
	log       zerolog.Logger
	location  *time.Location
	day       time.Time
	now       func() time.Time
	out       io.Writer
}

func main() {
	var cfgPath, planPath, nowClock string

	flag.StringVar(&cfgPath, "config", "", "path to config yaml")
	flag.StringVar(&planPath, "plan", "", "path to the plan file, overrides plan.path")
	flag.StringVar(&nowClock, "now", "", "clock time used as now, HH:MM")
	flag.Usage = func() { fmt.Fprint(os.Stderr, _Usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfgPath, planPath, nowClock, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(cfgPath, planPath, nowClock string, args []string) error {
	cfg, errConfig := config.Load(cfgPath)
	if errConfig != nil {
		return errConfig
	}

	logger, closeLog, errLogger := tymbox.NewLogger(
		&tymbox.ParamsNewLogger{
			Level:    cfg.Logger.Level,
			Console:  cfg.Logger.Console,
			FilePath: cfg.Logger.FilePath,
		},
	)
	if errLogger != nil {
		return errLogger
	}
	defer closeLog()

	location, errLocation := cfg.LoadLocation()
	if errLocation != nil {
		return errLocation
	}

	started := time.Now()
	now := started.In(location)

	if len(nowClock) > 0 {
		clock, errClock := parseClock(now, location, nowClock)
		if errClock != nil {
			return errClock
		}

		now = time.Unix(clock, 0).In(location)
	}

	// -now shifts the wall clock, it keeps running in watch mode
	offset := now.Sub(started)

	clockNow := func() time.Time {
		return time.Now().Add(offset).In(location)
	}

	timeline, errTimeline := cfg.TimelineFor(now)
	if errTimeline != nil {
		return errTimeline
	}

	scheduler, errScheduler := tymbox.NewScheduler(
		&tymbox.ParamsNewScheduler{
			TimeStart:       timeline.TimeStart,
			SecondsDuration: timeline.SecondsDuration,
			Logger:          &logger,
			Location:        location,
			Now:             clockNow,
		},
	)
	if errScheduler != nil {
		return errScheduler
	}

	if len(planPath) == 0 {
		planPath = cfg.Plan.Path
	}

	format, errFormat := tymbox.ParseFormat(cfg.Plan.Format)
	if errFormat != nil {
		return errFormat
	}

	if errLoad := loadPlan(scheduler, planPath, format, logger); errLoad != nil {
		return errLoad
	}

	a := app{
		scheduler: scheduler,
		log:       logger,
		location:  location,
		day:       now,
		now:       clockNow,
		out:       os.Stdout,
	}

	if args[0] == "watch" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a.show()

		return a.watch(ctx, planPath, format)
	}

	changed, errCommand := a.dispatch(args[0], args[1:])
	if errCommand != nil {
		return errCommand
	}

	a.show()

	if !changed {
		return nil
	}

	return savePlan(scheduler, planPath, format)
}

func loadPlan(scheduler *tymbox.Scheduler, path string, format tymbox.Format, log zerolog.Logger) error {
	file, errOpen := os.Open(path)
	if errOpen != nil {
		if errors.Is(errOpen, os.ErrNotExist) {
			return nil
		}

		return errOpen
	}
	defer file.Close()

	records, errDecode := tymbox.DecodeRecords(file, format)
	if errDecode != nil {
		return fmt.Errorf("plan %s: %w", path, errDecode)
	}

	response, errImport := scheduler.Import(records, true)
	if errImport != nil {
		return errImport
	}

	for _, issue := range response.Issues {
		log.Warn().Err(issue).Str("plan", path).Msg("record skipped")
	}

	return nil
}

func savePlan(scheduler *tymbox.Scheduler, path string, format tymbox.Format) error {
	file, errCreate := os.Create(path)
	if errCreate != nil {
		return errCreate
	}

	if errEncode := tymbox.EncodeRecords(file, format, scheduler.Export()); errEncode != nil {
		file.Close()

		return errEncode
	}

	return file.Close()
}

func parseClock(day time.Time, location *time.Location, clock string) (int64, error) {
	parsed, errParse := time.Parse("15:04", clock)
	if errParse != nil {
		return 0,
			fmt.Errorf("clock %q: %w", clock, errParse)
	}

	local := day.In(location)

	return time.Date(
			local.Year(), local.Month(), local.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0,
			location,
		).Unix(),
		nil
}
