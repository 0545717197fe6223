// Package mcp exposes episodes as Model Context Protocol tools, so that an agent can
// act as the policy of a tree build.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/partree"
	"github.com/aretw0/partree/internal/logging"
	"github.com/aretw0/partree/internal/presentation/graph"
	"github.com/aretw0/partree/internal/runtime"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SummariesURI is the resource listing recorded episode summaries.
const SummariesURI = "partree://summaries"

// ObservationResponse is returned by create_episode and reset_episode.
type ObservationResponse struct {
	EpisodeID    string                                 `json:"episode_id" jsonschema_description:"The episode to step"`
	Frontier     []domain.RegionID                      `json:"frontier" jsonschema_description:"Regions that need an action in the next step"`
	Observations map[domain.RegionID]domain.Observation `json:"observations" jsonschema_description:"Encoded ranges of each active region"`
}

// StepResponse is returned by step_episode.
type StepResponse struct {
	EpisodeID string             `json:"episode_id"`
	Frontier  []domain.RegionID  `json:"frontier" jsonschema_description:"Regions that need an action in the next step; empty when done"`
	Result    *domain.StepResult `json:"result"`
}

// EpisodeResponse is returned by get_episode.
type EpisodeResponse struct {
	EpisodeID string                 `json:"episode_id"`
	Status    domain.EpisodeStatus   `json:"status"`
	Frontier  []domain.RegionID      `json:"frontier"`
	Summary   *domain.EpisodeSummary `json:"summary,omitempty"`
}

// Server wraps a session manager and exposes it as an MCP server.
type Server struct {
	manager   *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("partree-mcp", strings.TrimSpace(partree.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port using SSE until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_episode",
		mcp.WithDescription("Start a new tree build over the loaded rules. Returns the episode id and the observation of the root region."),
		mcp.WithOutputSchema[ObservationResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("reset_episode",
		mcp.WithDescription("Restart an episode from the root region."),
		mcp.WithString("episode_id", mcp.Required(), mcp.Description("Episode id")),
		mcp.WithOutputSchema[ObservationResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("step_episode",
		mcp.WithDescription("Cut every active region. Exactly one action per frontier region is required; "+
			"an action is [dimension, magnitude] with dimension 0..4 (src_ip, dst_ip, src_port, dst_port, proto)."),
		mcp.WithString("episode_id", mcp.Required(), mcp.Description("Episode id")),
		mcp.WithString("actions", mcp.Required(), mcp.Description(`JSON object from region id to action, e.g. {"0": [0, 1]}`)),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStep))

	s.mcpServer.AddTool(mcp.NewTool("get_episode",
		mcp.WithDescription("Get the status, frontier and summary of an episode."),
		mcp.WithString("episode_id", mcp.Required(), mcp.Description("Episode id")),
		mcp.WithOutputSchema[EpisodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("episode_graph",
		mcp.WithDescription("Render the region tree of an episode as a Mermaid flowchart."),
		mcp.WithString("episode_id", mcp.Required(), mcp.Description("Episode id")),
		mcp.WithNumber("depth", mcp.Description("Maximum depth to draw (0 draws everything)")),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("list_episodes",
		mcp.WithDescription("List the ids of live episodes."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _ := json.Marshal(s.manager.List(ctx))
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleCreate(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (ObservationResponse, error) {
	id, obs, err := s.manager.Create(ctx)
	if err != nil {
		return ObservationResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return ObservationResponse{EpisodeID: id, Frontier: sortedKeys(obs), Observations: obs}, nil
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (ObservationResponse, error) {
	id, _ := args["episode_id"].(string)
	obs, err := s.manager.Reset(ctx, id)
	if err != nil {
		return ObservationResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return ObservationResponse{EpisodeID: id, Frontier: sortedKeys(obs), Observations: obs}, nil
}

func (s *Server) handleStep(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	id, _ := args["episode_id"].(string)
	raw, _ := args["actions"].(string)

	var actions map[domain.RegionID]domain.Action
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return StepResponse{}, fmt.Errorf("invalid actions: %w", err)
	}
	if actions == nil {
		actions = map[domain.RegionID]domain.Action{}
	}

	res, err := s.manager.Step(ctx, id, actions)
	if err != nil {
		s.logger.WarnContext(ctx, "MCP step rejected", "episode_id", id, "err", err)
		return StepResponse{}, fmt.Errorf("step failed: %w", err)
	}
	resp := StepResponse{EpisodeID: id, Result: res}
	if !res.Done {
		resp.Frontier = sortedKeys(res.Observations)
	}
	return resp, nil
}

func (s *Server) handleGet(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (EpisodeResponse, error) {
	id, _ := args["episode_id"].(string)
	var resp EpisodeResponse
	err := s.manager.View(ctx, id, func(ep session.Episode) error {
		resp = EpisodeResponse{EpisodeID: ep.ID(), Status: ep.Status(), Frontier: ep.Frontier(), Summary: ep.Summary()}
		return nil
	})
	return resp, err
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("episode_id", "")
	depth := request.GetInt("depth", 0)

	var chart string
	err := s.manager.View(ctx, id, func(ep session.Episode) error {
		regions := ep.Regions()
		overlay := &graph.Overlay{Frontier: ep.Frontier(), MaxDepth: depth}
		if ep.Status().Terminal() {
			overlay.Rewards = runtime.Rewards(regions)
		}
		chart = graph.GenerateMermaid(regions, overlay)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph failed: %v", err)), nil
	}
	return mcp.NewToolResultText(chart), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SummariesURI, "Recorded episode summaries",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.manager.Summaries(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list summaries: %w", err)
		}
		if list == nil {
			list = []*domain.EpisodeSummary{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: SummariesURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func sortedKeys[V any](m map[domain.RegionID]V) []domain.RegionID {
	ids := make([]domain.RegionID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
