// Package mcp exposes the engine as MCP tools over stdio. Every tool acts for
// the single owner the server was started with.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"oddsledger/internal/engine"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName is reported to clients during initialization.
const ServerName = "oddsledger"

// Server holds the state for the MCP server.
type Server struct {
	engine *engine.Engine
	owner  string
	sdk    *mcpsdk.Server
}

// NewServer creates a new MCP server acting for owner.
func NewServer(e *engine.Engine, owner, version string) (*Server, error) {
	if owner == "" {
		return nil, errors.New("mcp: an owner id is required (set OWNER_ID)")
	}

	s := &Server{
		engine: e,
		owner:  owner,
		sdk:    mcpsdk.NewServer(&mcpsdk.Implementation{Name: ServerName, Version: version}, nil),
	}
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("mcp: register tools: %w", err)
	}
	return s, nil
}

// Run serves the stdio transport until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("owner", s.owner).Msg("MCP server starting Stdio loop")
	return s.sdk.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session on t. Used by in-process clients.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.sdk.Connect(ctx, t, nil)
}
