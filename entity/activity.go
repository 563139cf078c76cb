package entity

import "time"

const (
	// IdleApplication is recorded when no window holds focus (lock screen, empty desktop).
	IdleApplication = "idle"

	DefaultActivityType = "general"
)

// Identity is what the focus sampler observed: the focused application and its window title.
type Identity struct {
	ApplicationName string `json:"application_name" yaml:"application_name"`
	WindowTitle     string `json:"window_title" yaml:"window_title"`
}

// IdleIdentity stands in for "no focused window".
var IdleIdentity = Identity{ApplicationName: IdleApplication}

func (i Identity) IsIdle() bool {
	return i.ApplicationName == IdleApplication
}

// ActivityRecord is a closed focus session as persisted by the store.
type ActivityRecord struct {
	ID              int64         `json:"id" yaml:"id"`
	ApplicationName string        `json:"application_name" yaml:"application_name"`
	WindowTitle     string        `json:"window_title" yaml:"window_title"`
	StartTime       time.Time     `json:"start_time" yaml:"start_time"`
	Duration        time.Duration `json:"duration" yaml:"duration"`
	ActivityType    string        `json:"activity_type" yaml:"activity_type"`
}

func (r ActivityRecord) Identity() Identity {
	return Identity{ApplicationName: r.ApplicationName, WindowTitle: r.WindowTitle}
}

// EndTime is the exclusive end of the interval covered by the record.
func (r ActivityRecord) EndTime() time.Time {
	return r.StartTime.Add(r.Duration)
}

// UnknownApplication is recorded when a window is focused but its application could not be resolved.
const UnknownApplication = "unknown"
