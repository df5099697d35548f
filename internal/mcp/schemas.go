package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// scanDirectoryTool returns the tool definition for scan_directory
func scanDirectoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "scan_directory",
		Description: "Scan an extracted device dump: extract every supported file, classify it and index it in the cache and the durable store",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"root_dir": map[string]interface{}{
					"type":        "string",
					"description": "Path to the directory to scan",
				},
			},
			Required: []string{"root_dir"},
		},
	}
}

// searchContentTool returns the tool definition for search_content
func searchContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_content",
		Description: "Find indexed files whose content contains a keyword",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"keyword": map[string]interface{}{
					"type":        "string",
					"description": "Substring to search for",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Tier to search: cache (fast, case-sensitive, unordered) or durable (ordered by path, at most 100 rows)",
					"enum":        []string{"cache", "durable"},
					"default":     "cache",
				},
			},
			Required: []string{"keyword"},
		},
	}
}

// searchCategoryTool returns the tool definition for search_category
func searchCategoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_category",
		Description: "List durable files classified into a content category",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Category name, e.g. credentials, location, payment or uncategorized",
				},
			},
			Required: []string{"category"},
		},
	}
}

// listPackagesTool returns the tool definition for list_packages
func listPackagesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_packages",
		Description: "List the application package names found by the last scan",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// packagePathsTool returns the tool definition for package_paths
func packagePathsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "package_paths",
		Description: "List the files attributed to a package by the last scan",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"package_name": map[string]interface{}{
					"type":        "string",
					"description": "Package name, e.g. com.tencent.mm",
				},
			},
			Required: []string{"package_name"},
		},
	}
}

// listAppsTool returns the tool definition for list_apps
func listAppsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_apps",
		Description: "List packages from the last scan with known app names, app types and file counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// releaseMemoryTool returns the tool definition for release_memory
func releaseMemoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "release_memory",
		Description: "Delete all cached file entries; the durable store is kept",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// clearDataTool returns the tool definition for clear_data
func clearDataTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_data",
		Description: "Delete all indexed data from both tiers and reset the package index. Fails while a scan is running.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Report row and cache counts, per-category totals, connection pool occupancy and the last scan",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
