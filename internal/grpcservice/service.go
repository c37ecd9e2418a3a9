// Package grpcservice implements the clipkeep.v1.History gRPC service the
// daemon exposes on its IPC socket, and the client the CLI uses to call it.
package grpcservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/daemon"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/message"
)

// Daemon is the part of *daemon.Daemon the service drives.
type Daemon interface {
	VisibleEntries(query string) []history.Entry
	FuzzyEntries(query string) []history.Entry
	Entry(id string) (history.Entry, bool)
	Head() (history.Entry, bool)
	CopyEntry(ctx context.Context, id string) (daemon.Outcome, error)
	DeleteEntry(ctx context.Context, id string) (daemon.Outcome, error)
	ClearAll(ctx context.Context) (daemon.Outcome, error)
	SetMonitoring(ctx context.Context, on bool) (daemon.Outcome, error)
	Save(ctx context.Context) (daemon.Outcome, error)
	Status() daemon.Status
	Hub() *hub.Hub
}

// Service implements HistoryServer on top of a Daemon.
type Service struct {
	d       Daemon
	version string
	seq     atomic.Uint64
}

// New returns a Service backed by d. version is reported by Status.
func New(d Daemon, version string) *Service {
	return &Service{d: d, version: version}
}

// List implements History.List.
func (s *Service) List(_ context.Context, req *message.ListRequest) (*message.ListResponse, error) {
	var entries []history.Entry
	if req.Fuzzy && req.Query != "" {
		entries = s.d.FuzzyEntries(req.Query)
	} else {
		entries = s.d.VisibleEntries(req.Query)
	}
	total := len(entries)
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return &message.ListResponse{Entries: message.FromEntries(entries), Total: total}, nil
}

// Get implements History.Get. An empty id selects the newest entry.
func (s *Service) Get(_ context.Context, req *message.GetRequest) (*message.GetResponse, error) {
	var (
		e  history.Entry
		ok bool
	)
	if req.ID == "" {
		e, ok = s.d.Head()
	} else {
		e, ok = s.d.Entry(req.ID)
	}
	if !ok {
		if req.ID == "" {
			return nil, status.Error(codes.NotFound, "history is empty")
		}
		return nil, status.Errorf(codes.NotFound, "no entry with id %s", req.ID)
	}
	return &message.GetResponse{Entry: message.FromEntry(e)}, nil
}

// Copy implements History.Copy.
func (s *Service) Copy(ctx context.Context, req *message.IDRequest) (*message.Result, error) {
	return s.result(s.d.CopyEntry(ctx, req.ID))
}

// Delete implements History.Delete.
func (s *Service) Delete(ctx context.Context, req *message.IDRequest) (*message.Result, error) {
	return s.result(s.d.DeleteEntry(ctx, req.ID))
}

// Clear implements History.Clear.
func (s *Service) Clear(ctx context.Context, _ *message.Empty) (*message.Result, error) {
	return s.result(s.d.ClearAll(ctx))
}

// SetMonitoring implements History.SetMonitoring.
func (s *Service) SetMonitoring(ctx context.Context, req *message.SetMonitoringRequest) (*message.Result, error) {
	return s.result(s.d.SetMonitoring(ctx, req.On))
}

// Save implements History.Save.
func (s *Service) Save(ctx context.Context, _ *message.Empty) (*message.Result, error) {
	return s.result(s.d.Save(ctx))
}

// Status implements History.Status.
func (s *Service) Status(_ context.Context, _ *message.Empty) (*message.StatusResponse, error) {
	st := s.d.Status()
	resp := &message.StatusResponse{
		Count:       st.Count,
		MaxItems:    st.MaxItems,
		Monitoring:  st.Monitoring,
		HistoryPath: st.HistoryPath,
		Backend:     st.Backend,
		Message:     st.Message,
		Watchers:    st.Watchers,
		Version:     s.version,
	}
	if !st.LastSaved.IsZero() {
		t := st.LastSaved
		resp.LastSaved = &t
	}
	return resp, nil
}

// Watch implements History.Watch. Events are streamed until the client
// goes away.
func (s *Service) Watch(req *message.WatchRequest, stream WatchStream) error {
	p := hub.NewChanPeer(fmt.Sprintf("watch-%d", s.seq.Add(1)), 16)
	h := s.d.Hub()
	h.Register(p, req.Replay)
	defer h.Unregister(p)

	slog.Info("watch started", "peer", p.ID(), "replay", req.Replay)
	defer slog.Info("watch ended", "peer", p.ID())

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-p.Events():
			if err := stream.Send(message.FromChange(ev.Change, ev.Monitoring)); err != nil {
				return err
			}
		}
	}
}

func (s *Service) result(out daemon.Outcome, err error) (*message.Result, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &message.Result{Message: out.Message, Count: out.Count}, nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, history.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, clip.ErrUnavailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, daemon.ErrNotRunning):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor logs every unary call at debug level, and failures at
// warn.
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		slog.Warn("rpc failed", "method", info.FullMethod, "code", status.Code(err), "err", err)
		return resp, err
	}
	slog.Debug("rpc", "method", info.FullMethod, "took", time.Since(start))
	return resp, nil
}
