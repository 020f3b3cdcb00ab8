package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/cola-explorer/internal/colas"
	"github.com/EmpoweredVote/cola-explorer/internal/present"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound      = -32001 // No COLA with that ID
)

// RecordSummary is the compact form of a record returned by search_colas.
type RecordSummary struct {
	ColaID        string   `json:"cola_id"`
	CompletedDate string   `json:"completed_date,omitempty"`
	Brand         string   `json:"brand"`
	FancifulName  string   `json:"fanciful_name,omitempty"`
	ClassType     string   `json:"class_type,omitempty"`
	Origin        string   `json:"origin,omitempty"`
	Commodity     string   `json:"commodity"`
	Source        string   `json:"source"`
	Images        int64    `json:"images"`
	Warnings      []string `json:"warnings,omitempty"`
	DetailsURL    string   `json:"details_url,omitempty"`
}

// handleSearchColas handles the search_colas tool invocation
func (s *Server) handleSearchColas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	f, err := colas.ParseFilters(searchQuery(args), DefaultLimit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search parameters", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	res, err := s.store.Search(ctx, f)
	if err != nil {
		s.logger.Error("search_colas failed", zap.Error(err))
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	summaries := make([]RecordSummary, 0, len(res.Records))
	for _, r := range res.Records {
		summaries = append(summaries, summarize(r))
	}

	explanations := present.Explain(res.Filters, res.Dates, res.IDList)
	response := map[string]interface{}{
		"message":      present.ResultsMessage(res.Total, explanations, res.Filters.Limit),
		"total":        res.Total,
		"returned":     len(summaries),
		"offset":       res.Filters.Offset,
		"explanations": explanations,
		"distribution": present.Distribution(res.Matches),
		"records":      summaries,
	}
	if res.Dates.Valid() {
		response["date_range"] = res.Dates
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetCola handles the get_cola tool invocation
func (s *Server) handleGetCola(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id := strings.TrimSpace(getStringDefault(args, "cola_id", ""))
	if id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "cola_id parameter is required", map[string]interface{}{
			"param":  "cola_id",
			"reason": "missing or empty",
		})
	}

	rec, err := s.store.Get(ctx, id)
	switch {
	case errors.Is(err, colas.ErrInvalidColaID):
		return nil, newMCPError(ErrorCodeInvalidParams, "cola_id must be 14 digits", map[string]interface{}{
			"param": "cola_id",
			"value": id,
		})
	case errors.Is(err, colas.ErrNotFound):
		return nil, newMCPError(ErrorCodeNotFound, "cola not found", map[string]interface{}{
			"cola_id": id,
		})
	case err != nil:
		s.logger.Error("get_cola failed", zap.Error(err), zap.String("cola_id", id))
		return nil, newMCPError(ErrorCodeInternalError, "failed to fetch cola", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"record":   rec,
		"warnings": present.ViolationLines(rec.Violations, ""),
		"badge":    present.Badge(rec.ColaAnalysisCount, rec.ColaAnalysisWithViolationsCount),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListFilterOptions handles the list_filter_options tool invocation
func (s *Server) handleListFilterOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, err := s.store.Options(ctx)
	if err != nil {
		s.logger.Error("list_filter_options failed", zap.Error(err))
		return nil, newMCPError(ErrorCodeInternalError, "failed to load filter options", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(toMap(opts))), nil
}

// handleColaStats handles the cola_stats tool invocation
func (s *Server) handleColaStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Error("cola_stats failed", zap.Error(err))
		return nil, newMCPError(ErrorCodeInternalError, "failed to load stats", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(toMap(st))), nil
}

func summarize(r colas.Record) RecordSummary {
	sum := RecordSummary{
		ColaID:       r.ColaID,
		Brand:        orUnknown(r.BrandName),
		FancifulName: deref(r.FancifulName),
		ClassType:    deref(r.ClassType),
		Origin:       deref(r.Origin),
		Commodity:    r.CtCommodity,
		Source:       r.CtSource,
		Images:       r.ImageCount,
		Warnings:     present.ViolationLines(r.Violations, ""),
		DetailsURL:   deref(r.ColaDetailsURL),
	}
	if r.CompletedDate != nil {
		sum.CompletedDate = r.CompletedDate.Format(colas.DateLayout)
	}
	return sum
}

// searchQuery maps tool arguments onto the query parameters the HTTP
// search endpoint accepts.
func searchQuery(args map[string]interface{}) url.Values {
	q := url.Values{}
	for _, key := range []string{"search", "exclude", "start_date", "end_date", "sort"} {
		if v := getStringDefault(args, key, ""); v != "" {
			q.Set(key, v)
		}
	}
	for _, key := range []string{"commodity", "origin", "class_type", "brand", "violation_group"} {
		if v := getStringList(args, key); len(v) > 0 {
			q.Set(key, strings.Join(v, ","))
		}
	}
	if getBoolDefault(args, "all_dates", false) {
		q.Set("all_dates", "1")
	}
	if _, ok := args["limit"]; ok {
		q.Set("limit", strconv.Itoa(getIntDefault(args, "limit", DefaultLimit)))
	}
	if _, ok := args["offset"]; ok {
		q.Set("offset", strconv.Itoa(getIntDefault(args, "offset", 0)))
	}
	return q
}

func arguments(request mcp.CallToolRequest) (map[string]interface{}, bool) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, true
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	return args, ok
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

func toMap(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return out
}

func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringList accepts either a JSON array of strings or a single
// comma-separated string.
func getStringList(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orUnknown(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "UNKNOWN"
	}
	return *s
}
