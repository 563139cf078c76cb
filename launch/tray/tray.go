// Package tray drives tracking from a system tray icon. It is kept apart
// from the poll loop so headless builds do not link the GUI libraries.
package tray

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/getlantern/systray"
	"github.com/hashicorp/go-hclog"

	"focuswatch/tracker"
)

// Control is the part of the control surface the tray menu drives.
type Control interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() tracker.Status
}

type Tray struct {
	ctrl         Control
	dashboardURL string
	iconPath     string
	log          hclog.Logger
}

func New(ctrl Control, dashboardURL, iconPath string, logger hclog.Logger) *Tray {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Tray{ctrl: ctrl, dashboardURL: dashboardURL, iconPath: iconPath, log: logger.Named("tray")}
}

// Run blocks until Quit is chosen. Tracking is stopped, and the open session
// flushed, before it returns.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	if t.iconPath != "" {
		if icon, err := os.ReadFile(t.iconPath); err == nil {
			systray.SetIcon(icon)
		}
	}
	systray.SetTitle("focuswatch")
	systray.SetTooltip("Tracking focused windows")

	mToggle := systray.AddMenuItem("Stop tracking", "Pause focus tracking")
	mOpenWeb := systray.AddMenuItem("Open dashboard", "Open "+t.dashboardURL+" in the browser")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Stop tracking and exit")

	if err := t.ctrl.Start(context.Background()); err != nil {
		t.log.Error("start tracking", "error", err)
	}
	t.refresh(mToggle)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-mToggle.ClickedCh:
				t.toggle()
				t.refresh(mToggle)
			case <-mOpenWeb.ClickedCh:
				if err := openBrowser(t.dashboardURL); err != nil {
					t.log.Warn("open dashboard", "error", err)
				}
			case <-ticker.C:
				t.refresh(mToggle)
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) toggle() {
	ctx := context.Background()
	if t.ctrl.Status().Running {
		if err := t.ctrl.Stop(ctx); err != nil {
			t.log.Error("stop tracking", "error", err)
		}
		return
	}
	if err := t.ctrl.Start(ctx); err != nil {
		t.log.Error("start tracking", "error", err)
	}
}

func (t *Tray) refresh(item *systray.MenuItem) {
	st := t.ctrl.Status()
	if st.Running {
		item.SetTitle("Stop tracking")
	} else {
		item.SetTitle("Start tracking")
	}
	switch {
	case st.Degraded():
		systray.SetTooltip("focuswatch: degraded (" + st.LastError + ")")
	case st.Identity != nil:
		systray.SetTooltip("focuswatch: " + st.Identity.ApplicationName)
	default:
		systray.SetTooltip("focuswatch: paused")
	}
}

func (t *Tray) onExit() {
	if err := t.ctrl.Stop(context.Background()); err != nil {
		t.log.Error("stop tracking", "error", err)
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
