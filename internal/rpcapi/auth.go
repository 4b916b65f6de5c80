package rpcapi

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/tap"

	"nllbd/internal/common/bearer"
)

// openServicePrefixes never require credentials.
var openServicePrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

// authTap rejects unauthenticated calls to the translation service as soon as
// headers arrive, before the request message is read.
func authTap(token string) tap.ServerInHandle {
	return func(ctx context.Context, info *tap.Info) (context.Context, error) {
		if token == "" {
			return ctx, nil
		}
		for _, p := range openServicePrefixes {
			if strings.HasPrefix(info.FullMethodName, p) {
				return ctx, nil
			}
		}
		for _, v := range info.Header.Get("authorization") {
			if bearer.Match(v, token) {
				return ctx, nil
			}
		}
		rpcAuthFailures.Inc()
		return ctx, status.Error(codes.Unauthenticated, "missing or invalid bearer token")
	}
}
