// Package sampler reports which window currently holds input focus.
//
// One implementation exists per platform; New picks it from the configured
// name once at startup.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"focuswatch/entity"
)

var errUnsupported = errors.New("focus sampling not supported on this platform")

type Sampler interface {
	// Sample returns the focused window. ok is false when nothing has focus;
	// err is non-nil when the platform could not be queried at all.
	Sample(ctx context.Context) (identity entity.Identity, ok bool, err error)
}

// Func adapts a plain function, mostly for tests and event-driven sources.
type Func func(ctx context.Context) (entity.Identity, bool, error)

func (f Func) Sample(ctx context.Context) (entity.Identity, bool, error) {
	return f(ctx)
}

// Static always reports the same identity.
type Static entity.Identity

func (s Static) Sample(context.Context) (entity.Identity, bool, error) {
	return entity.Identity(s), true, nil
}

// New returns the sampler registered under name. "auto" selects the one for
// the running OS.
func New(name string) (Sampler, error) {
	if name == "" || name == "auto" {
		name = platformDefault()
	}
	switch name {
	case "x11":
		return NewX11(), nil
	case "macos":
		return NewMacOS(), nil
	case "windows":
		return newWindows()
	default:
		return nil, fmt.Errorf("no focus sampler %q for %s", name, runtime.GOOS)
	}
}

func platformDefault() string {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "x11"
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	default:
		return runtime.GOOS
	}
}
