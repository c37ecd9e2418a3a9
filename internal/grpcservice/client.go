package grpcservice

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/message"
)

// Client calls the clipkeep.v1.History service.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// Dial returns a Client for the daemon listening on the IPC socket at path.
// No auth is needed; the socket is local and owner-restricted.
func Dial(path string) (*Client, error) {
	conn, err := grpc.NewClient("passthrough:///clipkeep",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ipc.Dial(ctx, path)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Client{cc: conn, conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close closes the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, fullMethod(method), in, out, grpc.CallContentSubtype(message.CodecName))
}

func (c *Client) List(ctx context.Context, req *message.ListRequest) (*message.ListResponse, error) {
	out := new(message.ListResponse)
	if err := c.invoke(ctx, "List", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches the entry with id; an empty id fetches the newest entry.
func (c *Client) Get(ctx context.Context, id string) (*message.Entry, error) {
	out := new(message.GetResponse)
	if err := c.invoke(ctx, "Get", &message.GetRequest{ID: id}, out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

func (c *Client) Copy(ctx context.Context, id string) (*message.Result, error) {
	return c.action(ctx, "Copy", &message.IDRequest{ID: id})
}

func (c *Client) Delete(ctx context.Context, id string) (*message.Result, error) {
	return c.action(ctx, "Delete", &message.IDRequest{ID: id})
}

func (c *Client) Clear(ctx context.Context) (*message.Result, error) {
	return c.action(ctx, "Clear", &message.Empty{})
}

func (c *Client) SetMonitoring(ctx context.Context, on bool) (*message.Result, error) {
	return c.action(ctx, "SetMonitoring", &message.SetMonitoringRequest{On: on})
}

func (c *Client) Save(ctx context.Context) (*message.Result, error) {
	return c.action(ctx, "Save", &message.Empty{})
}

func (c *Client) Status(ctx context.Context) (*message.StatusResponse, error) {
	out := new(message.StatusResponse)
	if err := c.invoke(ctx, "Status", &message.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) action(ctx context.Context, method string, in any) (*message.Result, error) {
	out := new(message.Result)
	if err := c.invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchClient receives history events.
type WatchClient struct {
	stream grpc.ClientStream
}

// Watch opens an event stream. Cancel ctx to stop it.
func (c *Client) Watch(ctx context.Context, req *message.WatchRequest) (*WatchClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("Watch"),
		grpc.CallContentSubtype(message.CodecName))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &WatchClient{stream: stream}, nil
}

// Recv blocks for the next event.
func (w *WatchClient) Recv() (*message.WatchEvent, error) {
	ev := new(message.WatchEvent)
	if err := w.stream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// IsNotFound reports whether err is a NotFound status.
func IsNotFound(err error) bool { return status.Code(err) == codes.NotFound }

// IsUnavailable reports whether err means the daemon could not be reached.
func IsUnavailable(err error) bool { return status.Code(err) == codes.Unavailable }
