package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/TudorHulban/tymbox"
)

const _SpecStatus = "@every 1m"

// watch follows the running task until ctx is done.
// The scheduler is only touched from this loop, cron and fsnotify feed it
// through channels.
func (a *app) watch(ctx context.Context, planPath string, format tymbox.Format) error {
	assistant, errAssistant := tymbox.NewAssistant(
		&tymbox.ParamsNewAssistant{
			Scheduler: a.scheduler,
			Now:       a.now,
			Logger:    &a.log,
			OnTaskEnded: func(task tymbox.Task) {
				fmt.Fprintf(a.out, "%s ended at %s\n", task.Name, a.clock(task.TimeEnd))
			},
		},
	)
	if errAssistant != nil {
		return errAssistant
	}
	defer assistant.Stop()

	watcher, errWatcher := fsnotify.NewWatcher()
	if errWatcher != nil {
		return errWatcher
	}
	defer watcher.Close()

	// editors replace files, watch the directory
	if errAdd := watcher.Add(filepath.Dir(planPath)); errAdd != nil {
		return fmt.Errorf("watch %s: %w", planPath, errAdd)
	}

	ticks := make(chan struct{}, 1)

	c := cron.New(cron.WithLocation(a.location))

	if _, errCron := c.AddFunc(
		_SpecStatus,
		func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		},
	); errCron != nil {
		return errCron
	}

	c.Start()
	defer func() { <-c.Stop().Done() }()

	a.log.Info().
		Str("plan", planPath).
		Msg("watching")

	a.status(assistant)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticks:
			assistant.CheckEnded(a.now().Unix())

			if _, isRunning := assistant.CurrentTask(); !isRunning {
				assistant.Refresh()
			}

			a.status(assistant)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != filepath.Base(planPath) ||
				event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if errLoad := loadPlan(a.scheduler, planPath, format, a.log); errLoad != nil {
				a.log.Warn().
					Err(errLoad).
					Str("plan", planPath).
					Msg("plan reload failed")

				continue
			}

			assistant.Refresh()
			a.show()

		case errWatch, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			a.log.Warn().
				Err(errWatch).
				Str("plan", planPath).
				Msg("plan watch error")
		}
	}
}

func (a *app) status(assistant *tymbox.Assistant) {
	task, isRunning := assistant.CurrentTask()
	if !isRunning {
		fmt.Fprintf(a.out, "%s  no task running\n", a.clock(a.now().Unix()))

		return
	}

	remaining, _ := assistant.Remaining(a.now().Unix())

	fmt.Fprintf(
		a.out,
		"%s  %s, %s left\n",

		a.clock(a.now().Unix()),
		task.Name,
		time.Duration(remaining)*time.Second,
	)
}
