package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New returns the root logger. Unknown level names fall back to info.
func New(level string, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "focuswatch",
		Level:      lvl,
		Output:     out,
		TimeFormat: "2006-01-02 15:04:05",
	})
}

// Discard is used by tests and by commands that print their own output.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
