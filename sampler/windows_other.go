//go:build !windows

package sampler

func newWindows() (Sampler, error) {
	return nil, errUnsupported
}
