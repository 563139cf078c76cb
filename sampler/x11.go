package sampler

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"focuswatch/entity"
)

// X11 reads _NET_ACTIVE_WINDOW through xprop. Wayland sessions without
// XWayland focus tracking report errors.
type X11 struct {
	xprop string
}

func NewX11() *X11 {
	return &X11{xprop: "xprop"}
}

func (x *X11) Sample(ctx context.Context) (entity.Identity, bool, error) {
	out, err := exec.CommandContext(ctx, x.xprop, "-root", "_NET_ACTIVE_WINDOW").Output()
	if err != nil {
		return entity.Identity{}, false, fmt.Errorf("xprop root: %w", err)
	}
	windowID, ok := parseActiveWindow(string(out))
	if !ok {
		return entity.Identity{}, false, nil
	}

	out, err = exec.CommandContext(ctx, x.xprop, "-id", windowID, "_NET_WM_NAME", "WM_NAME", "_NET_WM_PID", "WM_CLASS").Output()
	if err != nil {
		return entity.Identity{}, false, fmt.Errorf("xprop window %s: %w", windowID, err)
	}
	props := parseWindowProps(string(out))

	app := ""
	if props.pid > 0 {
		if name, err := processName(ctx, props.pid); err == nil {
			app = name
		}
	}
	if app == "" {
		app = props.class
	}
	return entity.Identity{ApplicationName: app, WindowTitle: props.title}, true, nil
}

// parseActiveWindow extracts the id from "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3a00007".
// An id of 0x0 means no window has focus.
func parseActiveWindow(out string) (string, bool) {
	i := strings.LastIndex(out, "#")
	if i < 0 {
		return "", false
	}
	id := strings.TrimSpace(out[i+1:])
	if f := strings.Fields(id); len(f) > 0 {
		id = strings.TrimSuffix(f[0], ",")
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(id, "0x"), 16, 64)
	if err != nil || n == 0 {
		return "", false
	}
	return id, true
}

type windowProps struct {
	title string
	pid   int32
	class string
}

func parseWindowProps(out string) windowProps {
	var p windowProps
	legacyTitle := ""
	for _, line := range strings.Split(out, "\n") {
		name, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		switch {
		case strings.HasPrefix(name, "_NET_WM_NAME"):
			p.title = unquote(value)
		case strings.HasPrefix(name, "WM_NAME"):
			legacyTitle = unquote(value)
		case strings.HasPrefix(name, "_NET_WM_PID"):
			if n, err := strconv.ParseInt(value, 10, 32); err == nil {
				p.pid = int32(n)
			}
		case strings.HasPrefix(name, "WM_CLASS"):
			// WM_CLASS(STRING) = "instance", "Class"
			parts := strings.Split(value, ",")
			p.class = unquote(strings.TrimSpace(parts[len(parts)-1]))
		}
	}
	if p.title == "" {
		p.title = legacyTitle
	}
	return p
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}
