// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcserver exposes a bridge.Tool as the sqlagent.GuardedQuery gRPC
// service, so agents running in another process share one guarded executor and
// its connection pool. The service is registered from a hand-written ServiceDesc
// over structpb payloads; see package model for the contract.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"sqlagent/cli/internal/bridge"
	"sqlagent/cli/internal/bridge/model"
	qerr "sqlagent/cli/internal/errors"
)

// guardedQueryServer is the handler contract RegisterService checks against.
type guardedQueryServer interface {
	Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: model.ServiceName,
	HandlerType: (*guardedQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: model.MethodExecute, Handler: executeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sqlagent/guarded_query",
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(guardedQueryServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: model.FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(guardedQueryServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server serves one tool over gRPC.
type Server struct {
	tool bridge.Tool
	log  *zap.Logger
}

// New creates a Server. A nil logger discards logs.
func New(tool bridge.Tool, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{tool: tool, log: log.Named("grpc")}
}

// Register attaches the service to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&serviceDesc, s)
}

// Execute runs one SQL request through the tool.
func (s *Server) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sql, err := model.DecodeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, qerr.CallerPrefix+err.Error())
	}

	res, err := s.tool.ExecuteSQL(ctx, sql)
	if err != nil {
		kind := qerr.KindOf(err)
		_ = grpc.SetTrailer(ctx, metadata.Pairs(model.ErrorKindKey, string(kind)))
		return nil, status.Error(model.CodeFor(kind), qerr.Caller(err))
	}

	out, err := model.EncodeResult(res)
	if err != nil {
		s.log.Error("encode result", zap.Error(err))
		return nil, status.Error(codes.Internal, qerr.CallerPrefix+"could not encode result")
	}
	return out, nil
}

// requestID returns the caller's x-request-id or a fresh one.
func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(model.RequestIDKey); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

// UnaryLogger logs one line per call with its request id, code and duration.
func UnaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		id := requestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(model.RequestIDKey, id))

		resp, err := handler(ctx, req)
		log.Info("rpc",
			zap.String("method", info.FullMethod),
			zap.String("request_id", id),
			zap.Stringer("code", status.Code(err)),
			zap.Duration("duration", time.Since(start)))
		return resp, err
	}
}

// NewGRPCServer builds a grpc.Server with the tool service and request logging.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryLogger(s.log))}, opts...)
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	gs := s.NewGRPCServer()

	errc := make(chan error, 1)
	go func() { errc <- gs.Serve(lis) }()
	s.log.Info("grpc tool server listening", zap.String("addr", lis.Addr().String()))

	select {
	case <-ctx.Done():
		gs.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
