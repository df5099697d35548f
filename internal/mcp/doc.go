// Package mcp implements the Model Context Protocol (MCP) server for forensicq.
//
// The MCP server exposes the forensic query engine to AI assistants as tools:
//   - scan_directory: Ingest an extracted device dump
//   - search_content: Keyword search against the cache or durable tier
//   - search_category: List durable files in a content category
//   - list_packages / package_paths / list_apps: Browse packages from the last scan
//   - release_memory: Drop cached file entries
//   - clear_data: Drop everything and reset the package index
//   - get_stats: Report tier counts, pool occupancy and the last scan
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries protocol messages only; all logging goes to stderr.
//
// # Basic Usage
//
//	forensicq mcp --config forensicq.yaml
//
// # Tool: scan_directory
//
//	Request:
//	{
//	  "name": "scan_directory",
//	  "arguments": {"root_dir": "/evidence/dump"}
//	}
//
//	Response:
//	{
//	  "scan_id": "5b0c...",
//	  "files_found": 1204,
//	  "files_processed": 1187,
//	  "files_skipped": 12,
//	  "files_failed": 5,
//	  "package_count": 43,
//	  "batches_failed": 0,
//	  "duration_ms": 2310
//	}
//
// A scan that is already running is rejected with ErrorCodeScanInProgress.
// Per-file extraction failures do not fail the call; up to five messages
// are returned in "errors".
//
// # Tool: search_content
//
//	Request:
//	{
//	  "name": "search_content",
//	  "arguments": {"keyword": "password", "source": "durable"}
//	}
//
//	Response:
//	{
//	  "source": "durable",
//	  "keyword": "password",
//	  "cost_ms": 1.42,
//	  "count": 1,
//	  "matches": [
//	    {
//	      "file_path": "/evidence/dump/data/com.example.app/databases/x.db",
//	      "content": "password: abc123",
//	      "package_name": "com.example.app",
//	      "source": "durable"
//	    }
//	  ]
//	}
//
// The cache tier matches case-sensitively and returns every hit; the
// durable tier folds ASCII case, orders by path and caps results.
//
// # Error Handling
//
// Tool errors are returned as *MCPError values with JSON-RPC codes:
//   - -32602: Invalid parameters
//   - -32603: Internal error
//   - -32001: Root directory missing or not a directory
//   - -32002: Scan already in progress (retryable)
//   - -32003: Package not found
//   - -32004: Empty keyword
//   - -32005: Connection pool exhausted (retryable)
package mcp
