package mcp

import (
	"context"
	"encoding/json"
	"time"

	"oddsledger/internal/engine"
	"oddsledger/internal/forecast"
	"oddsledger/internal/history"
	"oddsledger/internal/multiplier"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

type valuesResult struct {
	Stored int      `json:"stored"`
	Values []string `json:"values"`
}

type historyEntry struct {
	Value      multiplier.Value `json:"value"`
	RecordedAt time.Time        `json:"recordedAt"`
	Source     history.Source   `json:"source"`
}

func (s *Server) handleIngestText(ctx context.Context, _ *mcpsdk.CallToolRequest, in IngestTextInput) (*mcpsdk.CallToolResult, any, error) {
	values, err := s.engine.IngestReplace(ctx, s.owner, in.Text)
	if err != nil {
		return s.failure("ingest_text", err)
	}
	return jsonResult(valuesResult{Stored: len(values), Values: multiplier.Strings(values)})
}

func (s *Server) handleAppendValues(ctx context.Context, _ *mcpsdk.CallToolRequest, in AppendValuesInput) (*mcpsdk.CallToolResult, any, error) {
	values, err := s.engine.IngestAppend(ctx, s.owner, in.Values)
	if err != nil {
		return s.failure("append_values", err)
	}
	return jsonResult(valuesResult{Stored: len(values), Values: multiplier.Strings(values)})
}

func (s *Server) handleGetHistory(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	obs, err := s.engine.History(ctx, s.owner)
	if err != nil {
		return s.failure("get_history", err)
	}
	entries := make([]historyEntry, len(obs))
	for i, o := range obs {
		entries[i] = historyEntry{Value: o.Value, RecordedAt: o.RecordedAt, Source: o.Source}
	}
	return jsonResult(entries)
}

func (s *Server) handleGetStatistics(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	summary, err := s.engine.Statistics(ctx, s.owner)
	if err != nil {
		return s.failure("get_statistics", err)
	}
	return jsonResult(summary)
}

func (s *Server) handleGetPrediction(ctx context.Context, _ *mcpsdk.CallToolRequest, in PredictionInput) (*mcpsdk.CallToolResult, any, error) {
	mode, err := forecast.ParseMode(in.Mode)
	if err != nil {
		return errorResult(err), nil, nil
	}
	p, err := s.engine.Prediction(ctx, s.owner, mode)
	if err != nil {
		return s.failure("get_prediction", err)
	}
	return jsonResult(p)
}

func (s *Server) handleBacktest(ctx context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	result, err := s.engine.Backtest(ctx, s.owner)
	if err != nil {
		return s.failure("backtest_prediction", err)
	}
	return jsonResult(result)
}

// failure turns caller mistakes into tool errors the model can read and
// reports everything else as a protocol error.
func (s *Server) failure(tool string, err error) (*mcpsdk.CallToolResult, any, error) {
	if engine.IsClientError(err) {
		log.Debug().Str("tool", tool).Str("owner", s.owner).Err(err).Msg("Tool call rejected")
		return errorResult(err), nil, nil
	}
	log.Error().Str("tool", tool).Str("owner", s.owner).Err(err).Msg("Tool call failed")
	return nil, nil, err
}

func jsonResult(v any) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
	}
}
