package tymbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	goerrors "github.com/TudorHulban/go-errors"
	"go.yaml.in/yaml/v3"
)

// Record is the persisted form of a task.
// Times are seconds from local midnight of the timeline day.
type Record struct {
	Type            string `json:"type"                       yaml:"type"`
	Name            string `json:"name"                       yaml:"name"`
	StartTime       *int64 `json:"start_time"                 yaml:"start_time"`
	EndTime         *int64 `json:"end_time"                   yaml:"end_time"`
	TimePreference  string `json:"time_preference"            yaml:"time_preference"`
	PreferenceValue *int64 `json:"preference_value,omitempty" yaml:"preference_value,omitempty"`
	ExternalCardID  string `json:"external_card_id,omitempty" yaml:"external_card_id,omitempty"`
}

type ResponseImport struct {
	Issues []error

	Imported int
	Skipped  int
}

func (s *Scheduler) midnight() int64 {
	day := time.Unix(s.store.timeline.TimeStart, 0).In(s.location)

	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.location).Unix()
}

func recordFromTask(task Task, midnight int64) Record {
	start := task.TimeStart - midnight
	end := task.TimeEnd - midnight
	anchor := task.PreferenceValue - midnight

	result := Record{
		Type:            task.Kind().String(),
		Name:            task.Name,
		StartTime:       &start,
		EndTime:         &end,
		TimePreference:  task.Preference.String(),
		PreferenceValue: &anchor,
	}

	if card, isCard := task.Variant.(VariantCard); isCard {
		result.ExternalCardID = card.ExternalCardID
	}

	return result
}

func variantFromRecord(record *Record) (TaskVariant, error) {
	switch record.Type {
	case KindTask.String():
		return VariantPlain{},
			nil

	case KindCardTask.String():
		if len(record.ExternalCardID) == 0 {
			return nil,
				goerrors.ErrNilInput{
					InputName: "external_card_id",
				}
		}

		return VariantCard{
				ExternalCardID: record.ExternalCardID,
			},
			nil
	}

	return nil,
		fmt.Errorf("unknown task type %q", record.Type)
}

func taskFromRecord(record *Record, midnight int64) (Task, error) {
	variant, errVariant := variantFromRecord(record)
	if errVariant != nil {
		return Task{},
			errVariant
	}

	if len(record.Name) == 0 {
		return Task{},
			goerrors.ErrNilInput{
				InputName: "name",
			}
	}

	if record.StartTime == nil {
		return Task{},
			goerrors.ErrNilInput{
				InputName: "start_time",
			}
	}

	if record.EndTime == nil {
		return Task{},
			goerrors.ErrNilInput{
				InputName: "end_time",
			}
	}

	preference, errPreference := ParseTimePreference(record.TimePreference)
	if errPreference != nil {
		return Task{},
			errPreference
	}

	duration := *record.EndTime - *record.StartTime
	if duration < MinimumSeconds {
		return Task{},
			fmt.Errorf(
				"duration %ds: %w",

				duration,
				ErrMinDurationViolation,
			)
	}

	var anchor *int64

	if record.PreferenceValue != nil {
		absolute := *record.PreferenceValue + midnight
		anchor = &absolute
	}

	return newTask(
			&paramsNewTask{
				Name:            record.Name,
				Variant:         variant,
				PreferenceValue: anchor,
				TimeStart:       *record.StartTime + midnight,
				SecondsDuration: duration,
				Preference:      preference,
			},
		),
		nil
}

// Export returns the tasks in timeline order as records relative to midnight.
func (s *Scheduler) Export() []Record {
	midnight := s.midnight()

	result := make([]Record, 0, s.store.count())

	for _, task := range s.store.tasks {
		result = append(result, recordFromTask(task, midnight))
	}

	return result
}

// Import adds the records to the timeline, replace drops the current tasks first.
// Invalid records and records that do not fit are skipped and reported,
// they do not fail the import.
func (s *Scheduler) Import(records []Record, replace bool) (*ResponseImport, error) {
	midnight := s.midnight()

	var result ResponseImport

	skip := func(index int, issue error) {
		result.Skipped++

		result.Issues = append(
			result.Issues,
			ErrImportRecord{
				Index: index,
				Issue: issue,
			},
		)

		s.log.Info().
			Int("record", index).
			Err(issue).
			Msg("import record skipped")
	}

	if errTx := s.transaction(
		"Import",
		TaskID{},
		func(tx *taskStore, _ *cascade) error {
			if replace {
				tx.removeAll()
			}

			for ix := range records {
				task, errConvert := taskFromRecord(&records[ix], midnight)
				if errConvert != nil {
					skip(ix, errConvert)

					continue
				}

				if !tx.timeline.contains(task.TimeInterval) {
					skip(ix, ErrOutsideTimeline)

					continue
				}

				pos := tx.positionForTime(task.TimeStart)

				if (pos > 0 && tx.tasks[pos-1].Overlaps(task.TimeInterval)) ||
					(pos < tx.count() && tx.tasks[pos].Overlaps(task.TimeInterval)) {
					skip(ix, ErrIrrecoverableOverlap)

					continue
				}

				if errInsert := tx.insertAt(pos, task); errInsert != nil {
					return errInsert
				}

				result.Imported++
			}

			return nil
		},
	); errTx != nil {
		return nil,
			errTx
	}

	return &result,
		nil
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatYAML:
		return Format(name),
			nil
	}

	return "",
		goerrors.ErrInvalidInput{
			Caller:     "ParseFormat",
			InputName:  "format",
			InputValue: name,
			Issue:      errors.New("supported formats are json and yaml"),
		}
}

func EncodeRecords(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)

		if errEncode := encoder.Encode(records); errEncode != nil {
			return errEncode
		}

		return encoder.Close()

	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(records)
	}
}

func DecodeRecords(r io.Reader, format Format) ([]Record, error) {
	var result []Record

	switch format {
	case FormatYAML:
		if errDecode := yaml.NewDecoder(r).Decode(&result); errDecode != nil && !errors.Is(errDecode, io.EOF) {
			return nil,
				errDecode
		}

	default:
		if errDecode := json.NewDecoder(r).Decode(&result); errDecode != nil && !errors.Is(errDecode, io.EOF) {
			return nil,
				errDecode
		}
	}

	return result,
		nil
}
