// Package mcptools exposes the analytics as Model Context Protocol tools.
package mcptools

import (
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	service "github.com/okian/cartola/internal/app"
	"github.com/okian/cartola/internal/domain/market"
	"github.com/okian/cartola/internal/domain/ranking"
	"github.com/okian/cartola/internal/domain/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tool names.
const (
	ToolMarketStatus    = "market_status"
	ToolCaptainRadar    = "captain_radar"
	ToolTrends          = "trends"
	ToolValorization    = "valorization"
	ToolRoundProjection = "round_projection"
)

// Dependencies are the service reads behind the tools.
type Dependencies interface {
	Market(ctx context.Context) (market.Status, error)
	Ranking(ctx context.Context, board string, limit int, probableOnly bool) ([]types.Entry, error)
	Project(ctx context.Context, ids []int) (service.ProjectionResult, error)
}

// LimitArgs selects the size of a board.
type LimitArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Number of entries (default 6)"`
}

// ProjectionArgs lists the athletes of a selection.
type ProjectionArgs struct {
	AthleteIDs []int `json:"athlete_ids" jsonschema:"Athlete ids of the selection (required)"`
}

type empty struct{}

type trends struct {
	Rising  []types.Entry `json:"rising"`
	Falling []types.Entry `json:"falling"`
}

// Tools binds the tool handlers to deps.
type Tools struct {
	deps    Dependencies
	version string
}

// New creates the tool set.
func New(deps Dependencies, version string) *Tools {
	return &Tools{deps: deps, version: version}
}

// Server builds an MCP server with every tool registered.
func (t *Tools) Server() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "cartola-analytics", Version: t.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolMarketStatus,
		Description: "Whether the Cartola market is open and the current round",
	}, t.marketStatus)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolCaptainRadar,
		Description: "Best probable midfielders and forwards by captain score, one per club",
	}, t.captainRadar)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolTrends,
		Description: "Probable athletes whose last round beat or missed their average the most",
	}, t.trends)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolValorization,
		Description: "Probable athletes with the highest estimated price valorization",
	}, t.valorization)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolRoundProjection,
		Description: "Expected, optimistic and pessimistic points of a selection for the next round",
	}, t.roundProjection)

	return server
}

// Handler serves the tools over streamable HTTP.
func (t *Tools) Handler() http.Handler {
	server := t.Server()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (t *Tools) marketStatus(ctx context.Context, _ *mcp.CallToolRequest, _ empty) (*mcp.CallToolResult, any, error) {
	s, err := t.deps.Market(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]any{"open": s.Open, "round": s.Round, "label": s.Label()})
}

func (t *Tools) captainRadar(ctx context.Context, _ *mcp.CallToolRequest, args LimitArgs) (*mcp.CallToolResult, any, error) {
	return t.board(ctx, ranking.BoardCaptain, args.Limit)
}

func (t *Tools) valorization(ctx context.Context, _ *mcp.CallToolRequest, args LimitArgs) (*mcp.CallToolResult, any, error) {
	return t.board(ctx, ranking.BoardValorization, args.Limit)
}

func (t *Tools) trends(ctx context.Context, _ *mcp.CallToolRequest, args LimitArgs) (*mcp.CallToolResult, any, error) {
	rising, err := t.deps.Ranking(ctx, ranking.BoardRising, args.Limit, true)
	if err != nil {
		return toolError(err), nil, nil
	}
	falling, err := t.deps.Ranking(ctx, ranking.BoardFalling, args.Limit, true)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(trends{Rising: rising, Falling: falling})
}

func (t *Tools) roundProjection(ctx context.Context, _ *mcp.CallToolRequest, args ProjectionArgs) (*mcp.CallToolResult, any, error) {
	if len(args.AthleteIDs) == 0 {
		return toolError(fmt.Errorf("athlete_ids is required")), nil, nil
	}
	p, err := t.deps.Project(ctx, args.AthleteIDs)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(p)
}

func (t *Tools) board(ctx context.Context, board string, limit int) (*mcp.CallToolResult, any, error) {
	entries, err := t.deps.Ranking(ctx, board, limit, true)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(entries)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}
