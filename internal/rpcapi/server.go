// Package rpcapi serves the translation contract over gRPC as
// nllb.TranslationService, next to the standard grpc.health.v1 service.
package rpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"

	"nllbd/internal/manager"
	"nllbd/pkg/types"
)

// Service is what the gRPC layer needs from the request handler.
type Service interface {
	Translate(ctx context.Context, req types.TranslateRequest) (types.TranslateResponse, error)
}

// Options configures a Server.
type Options struct {
	// APIKey enables bearer auth on the translation service when non-empty.
	APIKey string
	Logger zerolog.Logger
	// MaxRecvMsgSize caps request size in bytes; 0 keeps the grpc default.
	MaxRecvMsgSize int
}

// Server hosts nllb.TranslationService, health and reflection on one grpc.Server.
type Server struct {
	svc    Service
	log    zerolog.Logger
	grpc   *grpc.Server
	health *health.Server
}

// translationServer is the handler type checked by grpc.RegisterService.
type translationServer interface {
	translate(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*translationServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Translate",
		Handler:    translateHandler,
	}},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

func translateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := dynamicpb.NewMessage(requestDesc)
	if err := dec(in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if interceptor == nil {
		return srv.(translationServer).translate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TranslateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(translationServer).translate(ctx, req.(*dynamicpb.Message))
	}
	return interceptor(ctx, in, info, handler)
}

// New builds a Server. Health reports NOT_SERVING until SetServing(true).
func New(svc Service, opts Options) *Server {
	s := &Server{svc: svc, log: opts.Logger, health: health.NewServer()}
	sopts := []grpc.ServerOption{
		grpc.InTapHandle(authTap(opts.APIKey)),
		grpc.ChainUnaryInterceptor(s.recoverUnary, s.observeUnary),
	}
	if opts.MaxRecvMsgSize > 0 {
		sopts = append(sopts, grpc.MaxRecvMsgSize(opts.MaxRecvMsgSize))
	}
	s.grpc = grpc.NewServer(sopts...)
	s.grpc.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.SetServing(false)
	return s
}

// SetServing updates the health status for the server as a whole and for the
// translation service.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve accepts connections on lis until Shutdown or Close.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown stops accepting new RPCs and waits for running ones until ctx ends,
// then cuts the remaining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpc.Stop()
		<-done
		return ctx.Err()
	}
}

// Close stops the server immediately.
func (s *Server) Close() error {
	s.grpc.Stop()
	return nil
}

func (s *Server) translate(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	resp, err := s.svc.Translate(ctx, decodeRequest(in))
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(resp.Translations), nil
}

// toStatus maps request handler errors onto gRPC codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case manager.IsValidation(err):
		code = codes.InvalidArgument
	case manager.IsTooBusy(err):
		code = codes.ResourceExhausted
	case manager.IsUnavailable(err):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func (s *Server) recoverUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("method", info.FullMethod).Interface("panic", r).Msg("grpc handler panic")
			err = status.Error(codes.Internal, fmt.Sprintf("panic: %v", r))
		}
	}()
	return handler(ctx, req)
}

func (s *Server) observeUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	rpcRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	rpcDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	ev := s.log.Debug()
	if code != codes.OK && code != codes.InvalidArgument {
		ev = s.log.Warn().Err(err)
	}
	ev.Str("method", info.FullMethod).Str("code", code.String()).Dur("dur", time.Since(start)).Msg("grpc call")
	return resp, err
}
