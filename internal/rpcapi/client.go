package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/dynamicpb"

	"nllbd/pkg/types"
)

// Client calls nllb.TranslationService over an existing connection.
type Client struct {
	conn  grpc.ClientConnInterface
	token string
}

// NewClient wraps conn. A non-empty token is sent as a bearer credential.
func NewClient(conn grpc.ClientConnInterface, token string) *Client {
	return &Client{conn: conn, token: token}
}

func (c *Client) Translate(ctx context.Context, req types.TranslateRequest, opts ...grpc.CallOption) (types.TranslateResponse, error) {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	out := dynamicpb.NewMessage(responseDesc)
	if err := c.conn.Invoke(ctx, TranslateMethod, encodeRequest(req), out, opts...); err != nil {
		return types.TranslateResponse{}, err
	}
	return types.TranslateResponse{Translations: listStrings(out, fieldTranslations)}, nil
}
