package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// IngestTextInput is the argument of ingest_text.
type IngestTextInput struct {
	Text string `json:"text" jsonschema:"Recognized text of a round-history capture. Every n.nnx occurrence is taken in order."`
}

// AppendValuesInput is the argument of append_values.
type AppendValuesInput struct {
	Values []string `json:"values" jsonschema:"Multipliers in n.nn or n.nnx form, oldest first."`
}

// PredictionInput is the argument of get_prediction.
type PredictionInput struct {
	Mode string `json:"mode,omitempty" jsonschema:"Prediction policy: forecast (default) or moving-window."`
}

// NoInput is the argument of tools that take none.
type NoInput struct{}

func (s *Server) registerTools() error {
	if err := addTool(s.sdk, &mcpsdk.Tool{
		Name: "ingest_text",
		Description: "Replace the whole round history with the multipliers found in a block of recognized text (e.g. OCR of a screenshot). " +
			"Only values carrying the x marker are taken. If none are found the history is left untouched. \n\n" +
			"Guidance: Use 'append_values' to continue an existing session instead of restarting it.",
	}, s.handleIngestText); err != nil {
		return err
	}
	if err := addTool(s.sdk, &mcpsdk.Tool{
		Name: "append_values",
		Description: "Append one or more multipliers to the end of the round history. " +
			"All values are validated first: a single malformed value rejects the whole batch and nothing is stored.",
	}, s.handleAppendValues); err != nil {
		return err
	}
	if err := addTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_history",
		Description: "List the stored round history, oldest first, with the time and source of each value.",
	}, s.handleGetHistory); err != nil {
		return err
	}
	if err := addTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_statistics",
		Description: "Descriptive statistics (mean, mode, median, population standard deviation, min, max, count) over the whole history. Needs at least 1 entry.",
	}, s.handleGetStatistics); err != nil {
		return err
	}
	if err := addTool(s.sdk, &mcpsdk.Tool{
		Name: "get_prediction",
		Description: "Estimate the next multiplier. 'forecast' reports simple mean, median, 10% trimmed mean and 20/50/80 percentile risk tiers (needs 1 entry). " +
			"'moving-window' averages the last 5 rounds (needs 5 entries). \n\n" +
			"STRICT GUARDRAIL: These are descriptive heuristics over past rounds, NOT probabilities of future outcomes. " +
			"YOU MUST NOT present them as guaranteed or likely results.",
	}, s.handleGetPrediction); err != nil {
		return err
	}
	return addTool(s.sdk, &mcpsdk.Tool{
		Name: "backtest_prediction",
		Description: "Replay the moving-window prediction over the history and report how it would have performed (mean absolute error, hit rate). Needs at least 6 entries. \n\n" +
			"Guidance: Run this before relying on 'get_prediction' with mode moving-window.",
	}, s.handleBacktest)
}

// addTool attaches an input schema derived from In and registers the handler.
func addTool[In any](srv *mcpsdk.Server, tool *mcpsdk.Tool, h mcpsdk.ToolHandlerFor[In, any]) error {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return err
	}
	tool.InputSchema = schema
	mcpsdk.AddTool(srv, tool, h)
	return nil
}
