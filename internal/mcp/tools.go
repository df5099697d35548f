package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/forensicq/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeInvalidRoot     = -32001 // Root directory missing or not a directory
	ErrorCodeScanInProgress  = -32002 // Another scan is already running
	ErrorCodePackageNotFound = -32003 // Package not seen by the last scan
	ErrorCodeEmptyKeyword    = -32004 // Keyword parameter is empty
	ErrorCodePoolExhausted   = -32005 // No database connection became free in time
)

// maxReportedErrors caps the error messages included in a scan response
const maxReportedErrors = 5

// handleScanDirectory handles the scan_directory tool invocation
func (s *Server) handleScanDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, ok := args["root_dir"].(string)
	if !ok || root == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "root_dir parameter is required", map[string]interface{}{
			"param":  "root_dir",
			"reason": "missing or empty",
		})
	}

	sum, err := s.engine.Indexer.Scan(ctx, root)
	if err != nil {
		return nil, toMCPError("scan failed", err)
	}

	response := map[string]interface{}{
		"scan_id":         sum.ScanID,
		"files_found":     sum.Discovered,
		"files_processed": sum.Processed,
		"files_skipped":   sum.Skipped,
		"files_failed":    sum.Errored,
		"package_count":   sum.PackageCount,
		"batches_failed":  sum.BatchesFailed,
		"cache_errors":    sum.CacheErrors,
		"duration_ms":     sum.Duration.Milliseconds(),
	}

	if len(sum.ErrorMessages) > 0 {
		errorCount := len(sum.ErrorMessages)
		if errorCount > maxReportedErrors {
			response["errors"] = sum.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = sum.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchContent handles the search_content tool invocation
func (s *Server) handleSearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	keyword, ok := args["keyword"].(string)
	if !ok || keyword == "" {
		return nil, newMCPError(ErrorCodeEmptyKeyword, "keyword parameter is required and cannot be empty", map[string]interface{}{
			"param":  "keyword",
			"reason": "missing or empty",
		})
	}

	source, err := types.ParseSource(getStringDefault(args, "source", ""))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid source", map[string]interface{}{
			"param":   "source",
			"value":   args["source"],
			"allowed": []string{string(types.SourceCache), string(types.SourceDurable)},
		})
	}

	res, err := s.engine.Searcher.Query(ctx, keyword, source)
	if err != nil {
		return nil, toMCPError("search failed", err)
	}
	return mcp.NewToolResultText(formatJSON(resultResponse(res))), nil
}

// handleSearchCategory handles the search_category tool invocation
func (s *Server) handleSearchCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	category, ok := args["category"].(string)
	if !ok || category == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "category parameter is required", map[string]interface{}{
			"param":  "category",
			"reason": "missing or empty",
		})
	}

	res, err := s.engine.Searcher.QueryCategory(ctx, category)
	if err != nil {
		return nil, toMCPError("category search failed", err)
	}
	return mcp.NewToolResultText(formatJSON(resultResponse(res))), nil
}

func resultResponse(res *types.QueryResult) map[string]interface{} {
	return map[string]interface{}{
		"source":  res.Source,
		"keyword": res.Keyword,
		"cost_ms": res.CostMS(),
		"count":   res.Count(),
		"matches": res.Matches,
	}
}

// handleListPackages handles the list_packages tool invocation
func (s *Server) handleListPackages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	packages := s.engine.Searcher.ListPackages()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":    len(packages),
		"packages": packages,
	})), nil
}

// handlePackagePaths handles the package_paths tool invocation
func (s *Server) handlePackagePaths(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name := getStringDefault(args, "package_name", "")
	paths, err := s.engine.Searcher.ListPaths(name)
	if err != nil {
		return nil, toMCPError("package lookup failed", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"package_name": name,
		"count":        len(paths),
		"paths":        paths,
	})), nil
}

// handleListApps handles the list_apps tool invocation
func (s *Server) handleListApps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps := s.engine.Searcher.Apps()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count": len(apps),
		"apps":  apps,
	})), nil
}

// handleReleaseMemory handles the release_memory tool invocation
func (s *Server) handleReleaseMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.engine.Searcher.PurgeCache(ctx)
	if err != nil {
		return nil, toMCPError("cache purge failed", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"released": n,
	})), nil
}

// handleClearData handles the clear_data tool invocation
func (s *Server) handleClearData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.engine.Searcher.ClearAll(ctx)
	if err != nil {
		return nil, toMCPError("clear failed", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"cleared":       true,
		"rows":          res.Rows,
		"cache_entries": res.CacheEntries,
	})), nil
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.Searcher.Stats(ctx)
	if err != nil {
		return nil, toMCPError("failed to get stats", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"stats": stats,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// toMCPError maps a domain error to an MCP error code
func toMCPError(message string, err error) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrInvalidRoot):
		code = ErrorCodeInvalidRoot
	case errors.Is(err, types.ErrScanInProgress):
		code = ErrorCodeScanInProgress
	case errors.Is(err, types.ErrPackageNotFound):
		code = ErrorCodePackageNotFound
	case errors.Is(err, types.ErrEmptyKeyword):
		code = ErrorCodeEmptyKeyword
	case errors.Is(err, types.ErrInvalidSource), errors.Is(err, types.ErrInvalidPackage):
		code = ErrorCodeInvalidParams
	case errors.Is(err, types.ErrPoolExhausted):
		code = ErrorCodePoolExhausted
	}
	return &MCPError{
		Code:    code,
		Message: message,
		Data: map[string]interface{}{
			"error":     err.Error(),
			"retryable": types.IsRetryable(err),
		},
		cause: err,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}

	cause error
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func (e *MCPError) Unwrap() error { return e.cause }

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
