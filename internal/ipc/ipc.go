// Package ipc locates and opens the local socket the clipkeep daemon serves
// its gRPC API on. CLI sub-commands dial it; only the daemon listens.
//
// The socket is a Unix domain socket everywhere except Windows, where a
// named pipe is used instead.
package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// EnvSocket overrides the socket path.
const EnvSocket = "CLIPKEEP_SOCKET"

// ErrInUse is returned by Listen when another daemon answers on the socket.
var ErrInUse = errors.New("ipc: socket in use by a running daemon")

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/clipkeep.sock, else $TMPDIR/clipkeep.sock
//   - macOS:   $TMPDIR/clipkeep.sock
//   - Windows: \\.\pipe\clipkeep
//
// $CLIPKEEP_SOCKET wins on every platform.
func SocketPath() string {
	if s := os.Getenv(EnvSocket); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on path.
// It does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	c, err := Dial(ctx, path)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen opens a listener on path. A stale socket left by a crashed daemon
// is removed; a live one yields ErrInUse.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, ErrInUse
	}
	removeStale(path)
	return listenIPC(path)
}

// Dial connects to the daemon socket at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	return dialIPC(ctx, path)
}
