package sampler

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"focuswatch/entity"
)

// The script prints the frontmost process name and its front window title on
// separate lines. Titles need the Accessibility permission; without it the
// title line is empty.
const frontWindowScript = `tell application "System Events"
	set frontProc to first application process whose frontmost is true
	set appName to name of frontProc
	set winTitle to ""
	try
		set winTitle to name of front window of frontProc
	end try
end tell
return appName & linefeed & winTitle`

type MacOS struct {
	osascript string
}

func NewMacOS() *MacOS {
	return &MacOS{osascript: "osascript"}
}

func (m *MacOS) Sample(ctx context.Context) (entity.Identity, bool, error) {
	out, err := exec.CommandContext(ctx, m.osascript, "-e", frontWindowScript).Output()
	if err != nil {
		return entity.Identity{}, false, fmt.Errorf("osascript: %w", err)
	}
	id, ok := parseFrontWindow(string(out))
	return id, ok, nil
}

func parseFrontWindow(out string) (entity.Identity, bool) {
	app, title, _ := strings.Cut(strings.TrimRight(out, "\n"), "\n")
	app = strings.TrimSpace(app)
	if app == "" {
		return entity.Identity{}, false
	}
	// loginwindow is frontmost while the screen is locked
	if app == "loginwindow" {
		return entity.Identity{}, false
	}
	return entity.Identity{ApplicationName: app, WindowTitle: strings.TrimSpace(title)}, true
}
