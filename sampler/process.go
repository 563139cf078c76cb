package sampler

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/process"
)

// processName resolves a pid to its executable name.
func processName(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", fmt.Errorf("process %d not found: %w", pid, err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("name of process %d: %w", pid, err)
	}
	return name, nil
}
