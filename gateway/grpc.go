// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/luxfi/ggst"
)

// grpcServiceName is the fully-qualified gRPC service name.
const grpcServiceName = "ggst.Gateway"

// grpcCodecName is the content-subtype negotiated by clients
// ("application/grpc+json").
const grpcCodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
	registerTransport(TransportGRPC, dialGRPC, listenGRPC)
}

// jsonCodec carries gateway messages as JSON instead of protobuf.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return ggst.JSON.Encode(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return ggst.JSON.Decode(data, v)
}

func (jsonCodec) Name() string { return grpcCodecName }

// backendStatus maps a backend failure to a gRPC status. Fatal-class
// failures (no token, replay retrieval) become FailedPrecondition;
// recoverable lookups become NotFound.
func backendStatus(logger *slog.Logger, method string, err error) error {
	fatal := ggst.IsFatal(err)
	logger.Warn("backend call failed", "method", method, "fatal", fatal, "error", err)
	if fatal {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.NotFound, err.Error())
}

// grpcBackend pairs the backend with the logger for handler access.
type grpcBackend struct {
	Backend
	logger *slog.Logger
}

func unaryHandler[Req any](method string, call func(ctx context.Context, b *grpcBackend, req *Req) (interface{}, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			b := srv.(*grpcBackend)
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				reply, err := call(ctx, b, req.(*Req))
				if err != nil {
					return nil, backendStatus(b.logger, method, err)
				}
				return reply, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + grpcServiceName + "/" + method,
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var grpcServiceDesc = grpc.ServiceDesc{
	ServiceName: grpcServiceName,
	HandlerType: (*Backend)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("PlayerStats", func(ctx context.Context, b *grpcBackend, req *PlayerArgs) (interface{}, error) {
			stats, err := b.PlayerStats(ctx, req.PlayerID)
			if err != nil {
				return nil, err
			}
			return &StatsReply{JSON: stats}, nil
		}),
		unaryHandler("PlayerAvatar", func(ctx context.Context, b *grpcBackend, req *PlayerArgs) (interface{}, error) {
			png, err := b.PlayerAvatar(ctx, req.PlayerID)
			if err != nil {
				return nil, err
			}
			return &AvatarReply{PNG: png}, nil
		}),
		unaryHandler("Replays", func(ctx context.Context, b *grpcBackend, _ *ReplaysArgs) (interface{}, error) {
			replays, err := b.Replays(ctx)
			if err != nil {
				return nil, err
			}
			return &ReplaysReply{Replays: replays}, nil
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gateway/grpc.go",
}

// grpcServer implements Server using gRPC
type grpcServer struct {
	listener net.Listener
	server   *grpc.Server
}

func listenGRPC(addr string, backend Backend, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server := grpc.NewServer()
	server.RegisterService(&grpcServiceDesc, &grpcBackend{Backend: backend, logger: o.logger})
	return &grpcServer{listener: listener, server: server}, nil
}

func (s *grpcServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.server.GracefulStop()
	}()
	return s.server.Serve(s.listener)
}

func (s *grpcServer) Close() error {
	s.server.Stop()
	return nil
}

func (s *grpcServer) Addr() string {
	return s.listener.Addr().String()
}

// grpcClient implements Client over a gRPC connection
type grpcClient struct {
	conn *grpc.ClientConn
}

func dialGRPC(_ context.Context, addr string, _ *dialOptions) (Client, error) {
	conn, err := grpc.NewClient("passthrough:///"+addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(grpcCodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &grpcClient{conn: conn}, nil
}

func (c *grpcClient) invoke(ctx context.Context, method string, args, reply interface{}) error {
	err := c.conn.Invoke(ctx, "/"+grpcServiceName+"/"+method, args, reply)
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.FailedPrecondition, codes.NotFound:
		return &RemoteError{Method: method, Message: st.Message(), Fatal: st.Code() == codes.FailedPrecondition}
	default:
		return err
	}
}

func (c *grpcClient) PlayerStats(ctx context.Context, playerID string) (string, error) {
	var reply StatsReply
	if err := c.invoke(ctx, "PlayerStats", &PlayerArgs{PlayerID: playerID}, &reply); err != nil {
		return "", err
	}
	return reply.JSON, nil
}

func (c *grpcClient) PlayerAvatar(ctx context.Context, playerID string) ([]byte, error) {
	var reply AvatarReply
	if err := c.invoke(ctx, "PlayerAvatar", &PlayerArgs{PlayerID: playerID}, &reply); err != nil {
		return nil, err
	}
	return reply.PNG, nil
}

func (c *grpcClient) Replays(ctx context.Context) ([]ggst.Replay, error) {
	var reply ReplaysReply
	if err := c.invoke(ctx, "Replays", &ReplaysArgs{}, &reply); err != nil {
		return nil, err
	}
	return reply.Replays, nil
}

func (c *grpcClient) Close() error {
	return c.conn.Close()
}
