// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	gorpc "github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/luxfi/ggst"
)

// RPCPath is where the JSON-RPC endpoint is mounted.
const RPCPath = "/rpc"

// ServiceName is the JSON-RPC service prefix (e.g. "Gateway.PlayerStats").
const ServiceName = "Gateway"

func init() {
	registerTransport(TransportJSON, dialJSON, listenJSON)
}

// errorData is attached to JSON-RPC errors.
type errorData struct {
	Fatal bool `json:"fatal"`
}

// Service adapts a Backend to gorilla/rpc method signatures.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

func (s *Service) fail(method string, err error) error {
	fatal := ggst.IsFatal(err)
	s.logger.Warn("backend call failed", "method", method, "fatal", fatal, "error", err)
	return &json2.Error{
		Code:    json2.E_SERVER,
		Message: err.Error(),
		Data:    errorData{Fatal: fatal},
	}
}

func (s *Service) PlayerStats(r *http.Request, args *PlayerArgs, reply *StatsReply) error {
	stats, err := s.backend.PlayerStats(r.Context(), args.PlayerID)
	if err != nil {
		return s.fail("PlayerStats", err)
	}
	reply.JSON = stats
	return nil
}

func (s *Service) PlayerAvatar(r *http.Request, args *PlayerArgs, reply *AvatarReply) error {
	png, err := s.backend.PlayerAvatar(r.Context(), args.PlayerID)
	if err != nil {
		return s.fail("PlayerAvatar", err)
	}
	reply.PNG = png
	return nil
}

func (s *Service) Replays(r *http.Request, _ *ReplaysArgs, reply *ReplaysReply) error {
	replays, err := s.backend.Replays(r.Context())
	if err != nil {
		return s.fail("Replays", err)
	}
	reply.Replays = replays
	return nil
}

// jsonServer implements Server over HTTP
type jsonServer struct {
	listener net.Listener
	server   *http.Server
}

func listenJSON(addr string, backend Backend, o *serverOptions) (Server, error) {
	rpcServer := gorpc.NewServer()
	rpcServer.RegisterCodec(json2.NewCodec(), "application/json")
	if err := rpcServer.RegisterService(&Service{backend: backend, logger: o.logger}, ServiceName); err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(RPCPath, rpcServer)
	return &jsonServer{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *jsonServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	if err := s.server.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *jsonServer) Close() error {
	return s.server.Close()
}

func (s *jsonServer) Addr() string {
	return s.listener.Addr().String()
}

// jsonClient implements Client with JSON-RPC 2.0 requests
type jsonClient struct {
	uri        string
	httpClient *http.Client
}

func dialJSON(_ context.Context, addr string, o *dialOptions) (Client, error) {
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &jsonClient{
		uri:        "http://" + addr + RPCPath,
		httpClient: httpClient,
	}, nil
}

// sendJSONRequest issues one JSON-RPC call. Unlike upstream API calls it
// is cheap and local, but it still isn't retried: the backend may have
// already performed a network exchange.
func (c *jsonClient) sendJSONRequest(ctx context.Context, method string, params, reply interface{}) error {
	requestBody, err := json2.EncodeClientRequest(ServiceName+"."+method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri, bytes.NewReader(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("failed to issue request: %w", err)
	}
	defer ggst.CleanlyCloseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("received status code: %d", resp.StatusCode)
	}

	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		var rpcErr *json2.Error
		if errors.As(err, &rpcErr) {
			return &RemoteError{Method: method, Message: rpcErr.Message, Fatal: isFatalData(rpcErr.Data)}
		}
		return fmt.Errorf("failed to decode client response: %w", err)
	}
	return nil
}

func isFatalData(data interface{}) bool {
	m, ok := data.(map[string]interface{})
	if !ok {
		return false
	}
	fatal, _ := m["fatal"].(bool)
	return fatal
}

func (c *jsonClient) PlayerStats(ctx context.Context, playerID string) (string, error) {
	var reply StatsReply
	if err := c.sendJSONRequest(ctx, "PlayerStats", &PlayerArgs{PlayerID: playerID}, &reply); err != nil {
		return "", err
	}
	return reply.JSON, nil
}

func (c *jsonClient) PlayerAvatar(ctx context.Context, playerID string) ([]byte, error) {
	var reply AvatarReply
	if err := c.sendJSONRequest(ctx, "PlayerAvatar", &PlayerArgs{PlayerID: playerID}, &reply); err != nil {
		return nil, err
	}
	return reply.PNG, nil
}

func (c *jsonClient) Replays(ctx context.Context) ([]ggst.Replay, error) {
	var reply ReplaysReply
	if err := c.sendJSONRequest(ctx, "Replays", &ReplaysArgs{}, &reply); err != nil {
		return nil, err
	}
	return reply.Replays, nil
}

func (c *jsonClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
