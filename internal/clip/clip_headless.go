package clip

// headlessBackend stands in when there is no display server (headless Linux
// servers, containers, CI). Every access fails with ErrUnavailable so the
// monitor keeps ticking and copy requests report the failure.
type headlessBackend struct{}

func newHeadless() Backend { return headlessBackend{} }

func (headlessBackend) Name() string          { return "headless (no clipboard)" }
func (headlessBackend) Read() (string, error) { return "", ErrUnavailable }
func (headlessBackend) Write(_ string) error  { return ErrUnavailable }
func (headlessBackend) Close()                {}
