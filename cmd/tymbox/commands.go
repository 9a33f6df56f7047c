package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/TudorHulban/tymbox"
)

type taskFlags struct {
	name       string
	preference string
	anchor     string
	card       string
	duration   time.Duration
}

func (f *taskFlags) register(set *flag.FlagSet) {
	set.StringVar(&f.name, "name", "", "task name")
	set.StringVar(&f.preference, "pref", tymbox.PreferencePreferred.String(), "time preference")
	set.StringVar(&f.anchor, "anchor", "", "preferred start, HH:MM")
	set.StringVar(&f.card, "card", "", "external card id")
	set.DurationVar(&f.duration, "duration", 30*time.Minute, "task duration")
}

type taskValues struct {
	variant    tymbox.TaskVariant
	anchor     *int64
	preference tymbox.TimePreference
}

func (a *app) resolve(f *taskFlags) (*taskValues, error) {
	preference, errPreference := tymbox.ParseTimePreference(f.preference)
	if errPreference != nil {
		return nil, errPreference
	}

	result := taskValues{
		preference: preference,
		variant:    tymbox.VariantPlain{},
	}

	if len(f.card) > 0 {
		result.variant = tymbox.VariantCard{
			ExternalCardID: f.card,
		}
	}

	if len(f.anchor) > 0 {
		anchor, errAnchor := parseClock(a.day, a.location, f.anchor)
		if errAnchor != nil {
			return nil, errAnchor
		}

		result.anchor = &anchor
	}

	return &result, nil
}

// dispatch runs the command and reports whether the plan changed.
func (a *app) dispatch(command string, args []string) (bool, error) {
	set := flag.NewFlagSet(command, flag.ContinueOnError)

	switch command {
	case "show":
		return false, set.Parse(args)

	case "append":
		var f taskFlags
		f.register(set)

		if errParse := set.Parse(args); errParse != nil {
			return false, errParse
		}

		values, errResolve := a.resolve(&f)
		if errResolve != nil {
			return false, errResolve
		}

		_, errAppend := a.scheduler.AppendTask(
			&tymbox.ParamsAppendTask{
				Name:            f.name,
				Variant:         values.variant,
				PreferenceValue: values.anchor,
				SecondsDuration: int64(f.duration / time.Second),
				Preference:      values.preference,
			},
		)

		return errAppend == nil, errAppend

	case "insert":
		var (
			f     taskFlags
			start string
		)

		f.register(set)
		set.StringVar(&start, "start", "", "task start, HH:MM")

		if errParse := set.Parse(args); errParse != nil {
			return false, errParse
		}

		values, errResolve := a.resolve(&f)
		if errResolve != nil {
			return false, errResolve
		}

		timeStart, errStart := parseClock(a.day, a.location, start)
		if errStart != nil {
			return false, errStart
		}

		response, errInsert := a.scheduler.InsertTask(
			&tymbox.ParamsInsertTask{
				Name:            f.name,
				Variant:         values.variant,
				PreferenceValue: values.anchor,
				TimeStart:       timeStart,
				SecondsDuration: int64(f.duration / time.Second),
				Preference:      values.preference,
			},
		)
		if errInsert != nil {
			return false, errInsert
		}

		if !response.WasInserted {
			fmt.Fprintf(a.out, "slot taken, first free start: %s\n", a.clock(response.WhenCanStart))
		}

		return response.WasInserted, nil

	case "interrupt":
		var (
			f        taskFlags
			comeBack bool
		)

		f.register(set)
		set.BoolVar(&comeBack, "comeback", false, "resume the interrupted task afterwards")

		if errParse := set.Parse(args); errParse != nil {
			return false, errParse
		}

		values, errResolve := a.resolve(&f)
		if errResolve != nil {
			return false, errResolve
		}

		_, errInterrupt := a.scheduler.InterruptCurrentTask(
			&tymbox.ParamsInterrupt{
				Name:            f.name,
				Variant:         values.variant,
				PreferenceValue: values.anchor,
				SecondsDuration: int64(f.duration / time.Second),
				Preference:      values.preference,
				ComeBack:        comeBack,
			},
		)

		return errInterrupt == nil, errInterrupt

	case "move", "resize":
		var (
			pos int
			by  time.Duration
		)

		set.IntVar(&pos, "pos", 0, "task position")
		set.DurationVar(&by, "by", 15*time.Minute, "amount, negative for earlier or shorter")

		if errParse := set.Parse(args); errParse != nil {
			return false, errParse
		}

		task, errGet := a.scheduler.GetTask(pos)
		if errGet != nil {
			return false, errGet
		}

		params := tymbox.ParamsAlterTask{
			TaskID:        task.ID,
			SecondsAmount: int64(by / time.Second),
		}

		alter := a.scheduler.MoveTask
		if command == "resize" {
			alter = a.scheduler.ResizeTask
		}

		response, errAlter := alter(&params)
		if errAlter != nil {
			return false, errAlter
		}

		fmt.Fprintf(a.out, "%s: %s of %s applied\n", response.Outcome, time.Duration(response.SecondsApplied)*time.Second, by)

		return response.SecondsApplied != 0, nil

	case "remove":
		var pos int

		set.IntVar(&pos, "pos", 0, "task position")

		if errParse := set.Parse(args); errParse != nil {
			return false, errParse
		}

		_, errRemove := a.scheduler.RemoveTask(pos)

		return errRemove == nil, errRemove

	case "free":
		var (
			from     string
			duration time.Duration
			latest   bool
		)

		set.StringVar(&from, "from", "", "search start, HH:MM, defaults to the timeline start")
		set.DurationVar(&duration, "duration", 30*time.Minute, "needed duration")
		set.BoolVar(&latest, "latest", false, "latest start instead of earliest")

		if errParse := set.Parse(args); errParse != nil {
			return false, errParse
		}

		timeline := a.scheduler.Timeline()
		timeStart := timeline.TimeStart

		if len(from) > 0 {
			var errFrom error

			if timeStart, errFrom = parseClock(a.day, a.location, from); errFrom != nil {
				return false, errFrom
			}
		}

		when := a.scheduler.FindAvailableTime(
			&tymbox.ParamsFindAvailableTime{
				TimeStart:        timeStart,
				MaximumTimeStart: timeline.TimeEnd() - int64(duration/time.Second),
				SecondsDuration:  int64(duration / time.Second),
				IsLatest:         latest,
			},
		)

		fmt.Fprintf(a.out, "free at: %s\n", a.clock(when))

		return false, nil
	}

	return false, fmt.Errorf("unknown command %q", command)
}

func (a *app) clock(timestamp int64) string {
	if timestamp == tymbox.NoAvailability {
		return "none"
	}

	return time.Unix(timestamp, 0).In(a.location).Format("15:04")
}

func (a *app) show() {
	timeline := a.scheduler.Timeline()

	fmt.Fprintf(a.out, "timeline %s - %s\n", a.clock(timeline.TimeStart), a.clock(timeline.TimeEnd()))

	_, _, hasActive := a.scheduler.GetActiveTask(a.day.Unix())

	for pos, task := range a.scheduler.Tasks() {
		marker := " "
		if hasActive && task.IsSpanning(a.day.Unix()) {
			marker = ">"
		}

		fmt.Fprintf(
			a.out,
			"%s %2d  %s-%s  %-12s %-8s %s\n",

			marker,
			pos,
			a.clock(task.TimeStart),
			a.clock(task.TimeEnd),
			task.Preference,
			task.Kind(),
			task.Name,
		)
	}
}
