//go:build windows

package sampler

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"focuswatch/entity"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
)

// Windows asks user32 for the foreground window and resolves its owning process.
type Windows struct{}

func newWindows() (Sampler, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32: %w", err)
	}
	return Windows{}, nil
}

func (Windows) Sample(ctx context.Context) (entity.Identity, bool, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return entity.Identity{}, false, nil
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return entity.Identity{}, false, fmt.Errorf("GetWindowThreadProcessId: %w", err)
	}
	app, err := processName(ctx, int32(pid))
	if err != nil {
		app = entity.UnknownApplication
	}
	return entity.Identity{ApplicationName: app, WindowTitle: windowText(hwnd)}, true, nil
}

func windowText(hwnd windows.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}
