package grpcservice

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/daemon"
	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/message"
	"go.klb.dev/clipkeep/internal/monitor"
)

const waitFor = 2 * time.Second

type fixture struct {
	d      *daemon.Daemon
	cb     *clip.Memory
	client *Client
}

func newDaemon(t *testing.T, cb *clip.Memory) *daemon.Daemon {
	t.Helper()
	return daemon.New(daemon.Config{
		HistoryPath: filepath.Join(t.TempDir(), "clipboard_history.json"),
		AutoSave:    time.Hour,
		Monitor:     monitor.Options{Interval: 5 * time.Millisecond},
	}, cb)
}

func runDaemon(t *testing.T, d *daemon.Daemon, cb *clip.Memory) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool { return cb.Reads() > 0 }, waitFor, time.Millisecond)
}

func serve(t *testing.T, d Daemon) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor))
	Register(srv, New(d, "test"))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cb := clip.NewMemory("")
	d := newDaemon(t, cb)
	runDaemon(t, d, cb)
	return &fixture{d: d, cb: cb, client: serve(t, d)}
}

func (f *fixture) copy(t *testing.T, text string) {
	t.Helper()
	f.cb.Set(text)
	require.Eventually(t, func() bool {
		h, ok := f.d.Head()
		return ok && h.Content == text
	}, waitFor, time.Millisecond)
}

func callCtx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), waitFor)
	t.Cleanup(cancel)
	return c
}

func TestService_ListAndGet(t *testing.T) {
	f := newFixture(t)
	f.copy(t, "first line")
	f.copy(t, "second line")
	f.copy(t, "something else")

	resp, err := f.client.List(callCtx(t), &message.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 3)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, "something else", resp.Entries[0].Content)
	assert.Equal(t, "text", resp.Entries[0].ContentType)

	resp, err = f.client.List(callCtx(t), &message.ListRequest{Query: "LINE", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "second line", resp.Entries[0].Content)

	resp, err = f.client.List(callCtx(t), &message.ListRequest{Query: "sml", Fuzzy: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Entries)
	assert.Equal(t, "something else", resp.Entries[0].Content)

	head, err := f.client.Get(callCtx(t), "")
	require.NoError(t, err)
	assert.Equal(t, "something else", head.Content)

	byID, err := f.client.Get(callCtx(t), resp.Entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, head.ID, byID.ID)

	_, err = f.client.Get(callCtx(t), "missing")
	assert.True(t, IsNotFound(err))
}

func TestService_GetEmptyHistory(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.Get(callCtx(t), "")
	assert.True(t, IsNotFound(err))
}

func TestService_Actions(t *testing.T) {
	f := newFixture(t)
	f.copy(t, "a")
	f.copy(t, "b")

	list, err := f.client.List(callCtx(t), &message.ListRequest{})
	require.NoError(t, err)
	older := list.Entries[1]

	res, err := f.client.Copy(callCtx(t), older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Copied to clipboard", res.Message)
	assert.Equal(t, []string{"a"}, f.cb.Writes())

	_, err = f.client.Copy(callCtx(t), "missing")
	assert.True(t, IsNotFound(err))

	res, err = f.client.Delete(callCtx(t), older.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "Item deleted (1 items remaining)", res.Message)

	_, err = f.client.Delete(callCtx(t), older.ID)
	assert.Equal(t, codes.NotFound, status.Code(err))

	res, err = f.client.Save(callCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "Saved 1 items to history", res.Message)

	res, err = f.client.Clear(callCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, "History cleared", res.Message)
}

func TestService_CopyClipboardUnavailable(t *testing.T) {
	f := newFixture(t)
	f.copy(t, "a")
	head, _ := f.d.Head()

	f.cb.Fail(assert.AnError)
	_, err := f.client.Copy(callCtx(t), head.ID)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestService_MonitoringAndStatus(t *testing.T) {
	f := newFixture(t)
	f.copy(t, "a")

	st, err := f.client.Status(callCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, 100, st.MaxItems)
	assert.True(t, st.Monitoring)
	assert.Equal(t, "memory", st.Backend)
	assert.Equal(t, "test", st.Version)
	assert.Nil(t, st.LastSaved)

	res, err := f.client.SetMonitoring(callCtx(t), false)
	require.NoError(t, err)
	assert.Equal(t, "Monitoring disabled", res.Message)

	st, err = f.client.Status(callCtx(t))
	require.NoError(t, err)
	assert.False(t, st.Monitoring)
}

func TestService_Watch(t *testing.T) {
	f := newFixture(t)

	wctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := f.client.Watch(wctx, &message.WatchRequest{})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return f.d.Hub().Count() == 1 }, waitFor, time.Millisecond)

	f.copy(t, "watched")
	ev, err := w.Recv()
	require.NoError(t, err)
	assert.Equal(t, "added", ev.Kind)
	require.NotNil(t, ev.Entry)
	assert.Equal(t, "watched", ev.Entry.Content)
	assert.Equal(t, 1, ev.Count)
	assert.True(t, ev.Monitoring)

	_, err = f.client.Clear(callCtx(t))
	require.NoError(t, err)
	ev, err = w.Recv()
	require.NoError(t, err)
	assert.Equal(t, "cleared", ev.Kind)
	assert.Nil(t, ev.Entry)

	cancel()
	require.Eventually(t, func() bool { return f.d.Hub().Count() == 0 }, waitFor, time.Millisecond)
}

func TestService_DaemonNotRunning(t *testing.T) {
	cb := clip.NewMemory("")
	client := serve(t, newDaemon(t, cb))

	_, err := client.Clear(callCtx(t))
	assert.True(t, IsUnavailable(err))

	resp, err := client.List(callCtx(t), &message.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Entries)
}

func TestDial_OverIPCSocket(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets only")
	}
	dir, err := os.MkdirTemp("", "ck")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "d.sock")

	cb := clip.NewMemory("")
	d := newDaemon(t, cb)
	runDaemon(t, d, cb)

	lis, err := ipc.Listen(path)
	require.NoError(t, err)
	srv := grpc.NewServer()
	Register(srv, New(d, "test"))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := Dial(path)
	require.NoError(t, err)
	defer client.Close()

	st, err := client.Status(callCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
}
