package tymbox

import "fmt"

type TimePreference uint8

const (
	PreferencePreferred  TimePreference = iota // try to start at the anchor
	PreferenceSequential                       // no preference, start asap
	PreferenceStartAt                          // must start at the anchor
	PreferenceEndNoLater                       // must end before the anchor
	PreferenceDuration                         // keeps its duration, start asap
	PreferenceFixed                            // never moved implicitly
)

var namesPreference = [...]string{
	PreferencePreferred:  "preferred",
	PreferenceSequential: "sequential",
	PreferenceStartAt:    "start_at",
	PreferenceEndNoLater: "end_no_later",
	PreferenceDuration:   "duration",
	PreferenceFixed:      "fixed",
}

func (p TimePreference) String() string {
	if int(p) < len(namesPreference) {
		return namesPreference[p]
	}

	return fmt.Sprintf("TimePreference(%d)", p)
}

func (p TimePreference) IsValid() bool {
	return int(p) < len(namesPreference)
}

func ParseTimePreference(name string) (TimePreference, error) {
	for ix, known := range namesPreference {
		if known == name {
			return TimePreference(ix),
				nil
		}
	}

	return 0,
		fmt.Errorf("unknown time preference %q", name)
}

func (p TimePreference) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil,
			fmt.Errorf("invalid time preference %d", p)
	}

	return []byte(p.String()),
		nil
}

func (p *TimePreference) UnmarshalText(text []byte) error {
	parsed, errParse := ParseTimePreference(string(text))
	if errParse != nil {
		return errParse
	}

	*p = parsed

	return nil
}
