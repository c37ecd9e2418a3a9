package grpcservice

import (
	"context"

	"google.golang.org/grpc"

	"go.klb.dev/clipkeep/internal/message"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "clipkeep.v1.History"

// HistoryServer is the server API of the clipkeep.v1.History service.
type HistoryServer interface {
	List(context.Context, *message.ListRequest) (*message.ListResponse, error)
	Get(context.Context, *message.GetRequest) (*message.GetResponse, error)
	Copy(context.Context, *message.IDRequest) (*message.Result, error)
	Delete(context.Context, *message.IDRequest) (*message.Result, error)
	Clear(context.Context, *message.Empty) (*message.Result, error)
	SetMonitoring(context.Context, *message.SetMonitoringRequest) (*message.Result, error)
	Save(context.Context, *message.Empty) (*message.Result, error)
	Status(context.Context, *message.Empty) (*message.StatusResponse, error)
	Watch(*message.WatchRequest, WatchStream) error
}

// WatchStream is the server side of a Watch call.
type WatchStream interface {
	Send(*message.WatchEvent) error
	Context() context.Context
}

// ServiceDesc describes clipkeep.v1.History for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("List", HistoryServer.List),
		unary("Get", HistoryServer.Get),
		unary("Copy", HistoryServer.Copy),
		unary("Delete", HistoryServer.Delete),
		unary("Clear", HistoryServer.Clear),
		unary("SetMonitoring", HistoryServer.SetMonitoring),
		unary("Save", HistoryServer.Save),
		unary("Status", HistoryServer.Status),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(message.WatchRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(HistoryServer).Watch(in, &watchStream{stream})
			},
		},
	},
	Metadata: "clipkeep/v1/history",
}

// Register attaches srv to s.
func Register(s *grpc.Server, srv HistoryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(HistoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(HistoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(HistoryServer), ctx, req.(*Req))
			})
		},
	}
}

type watchStream struct {
	grpc.ServerStream
}

func (s *watchStream) Send(ev *message.WatchEvent) error {
	return s.ServerStream.SendMsg(ev)
}
