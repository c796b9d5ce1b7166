// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcclient provides a gRPC-backed bridge.Tool. It calls the
// sqlagent.GuardedQuery service of another sqlagent process and turns status
// errors back into typed errors, so remote rejections look exactly like local ones.
package grpcclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"sqlagent/cli/internal/bridge/model"
	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/sqlexec"
)

// Client implements bridge.Tool over the GuardedQuery.Execute unary call.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for addr. With useTLS the server name is derived from
// addr and port 443 is assumed when none is given. extra options are appended.
func Dial(addr string, useTLS bool, extra ...grpc.DialOption) (*Client, error) {
	target := addr
	creds := insecure.NewCredentials()
	if useTLS {
		// Derive SNI and ensure default port if missing
		host := addr
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		} else {
			target = net.JoinHostPort(addr, "443")
		}
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	}

	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, extra...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// ExecuteSQL sends one query to the remote tool.
func (c *Client) ExecuteSQL(ctx context.Context, sql string) (*sqlexec.Result, error) {
	req, err := model.EncodeRequest(sql)
	if err != nil {
		return nil, err
	}

	ctx = metadata.AppendToOutgoingContext(ctx, model.RequestIDKey, uuid.NewString())
	var trailer metadata.MD
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, model.FullMethod, req, out, grpc.Trailer(&trailer)); err != nil {
		return nil, fromStatus(err, trailer)
	}
	return model.DecodeResult(out)
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// fromStatus rebuilds a typed error from a status error. Transport failures that
// did not come from the tool stay plain errors.
func fromStatus(err error, trailer metadata.MD) error {
	st := status.Convert(err)
	msg := strings.TrimPrefix(st.Message(), qerr.CallerPrefix)

	if v := trailer.Get(model.ErrorKindKey); len(v) > 0 && v[0] != "" {
		return qerr.Wrap(qerr.Kind(v[0]), msg, err)
	}
	if kind, ok := model.KindFor(st.Code()); ok {
		return qerr.Wrap(kind, msg, err)
	}
	return fmt.Errorf("guarded query rpc: %w", err)
}
