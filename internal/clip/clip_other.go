//go:build !darwin && !linux && !windows

package clip

// New returns a headless backend; golang.design/x/clipboard has no
// implementation for this platform.
func New() Backend {
	return newHeadless()
}
