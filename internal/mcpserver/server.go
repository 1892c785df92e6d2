// Package mcpserver exposes the tool dispatcher over the Model Context
// Protocol on stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	stdlog "log"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/ggonzalez94/eth-trading-mcp/internal/tools"
	"github.com/ggonzalez94/eth-trading-mcp/internal/version"
)

// Dispatcher runs one named tool call.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) (any, error)
}

type Server struct {
	mcp        *server.MCPServer
	dispatcher Dispatcher
	log        zerolog.Logger
}

// New registers every tool definition on a fresh MCP server.
func New(dispatcher Dispatcher, log zerolog.Logger) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			version.CLIName,
			version.CLIVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		dispatcher: dispatcher,
		log:        log.With().Str("component", "mcp").Logger(),
	}
	for _, tool := range tools.Definitions() {
		s.mcp.AddTool(tool, s.handle)
	}
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve reads JSON-RPC frames from in and writes responses to out until in is
// closed or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(s.log, "", 0))
	s.log.Info().Str("version", version.CLIVersion).Msg("serving mcp over stdio")
	return stdio.Listen(ctx, in, out)
}

func (s *Server) handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.Params.Name
	log := s.log.With().Str("request_id", uuid.NewString()).Str("tool", name).Logger()
	log.Debug().Msg("tool call")

	result, err := s.dispatcher.Dispatch(log.WithContext(ctx), name, request.GetArguments())
	if err != nil {
		log.Debug().Err(err).Msg("tool call failed")
		return errorResult(tools.ErrorPayload(err)), nil
	}

	buf, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Msg("encode tool result")
		return errorResult(tools.ErrorPayload(err)), nil
	}
	content := []mcp.Content{mcp.NewTextContent(string(buf))}
	if summary := tools.Summary(result); summary != "" {
		content = append(content, mcp.NewTextContent(summary))
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func errorResult(body any) *mcp.CallToolResult {
	buf, err := json.Marshal(body)
	if err != nil {
		return mcp.NewToolResultError(`{"kind":"InternalError","code":1,"message":"internal error"}`)
	}
	return mcp.NewToolResultError(string(buf))
}
