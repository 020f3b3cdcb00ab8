package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func listParam(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       map[string]interface{}{"type": "string"},
	}
}

// searchColasTool returns the tool definition for search_colas
func searchColasTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_colas",
		Description: "Search label approval (COLA) records by text, date range and facets. Returns matching records with their compliance review warnings.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"search": map[string]interface{}{
					"type":        "string",
					"description": "Text to find in COLA ID, brand, fanciful name, permit or serial number, label text or review output; or a comma-separated list of 14-digit COLA IDs",
				},
				"exclude": map[string]interface{}{
					"type":        "string",
					"description": "Drop records matching this text",
				},
				"start_date": map[string]interface{}{
					"type":        "string",
					"description": "First completed date, YYYY-MM-DD",
				},
				"end_date": map[string]interface{}{
					"type":        "string",
					"description": "Last completed date, YYYY-MM-DD",
				},
				"all_dates": map[string]interface{}{
					"type":        "boolean",
					"description": "Ignore the date range and search every record",
					"default":     false,
				},
				"commodity":       listParam("Commodities: beer, wine, distilled_spirits, unknown"),
				"origin":          listParam("Origins exactly as listed by list_filter_options"),
				"class_type":      listParam("Class types exactly as listed by list_filter_options"),
				"brand":           listParam("Brand names; UNKNOWN selects records without one"),
				"violation_group": listParam("Only records with a review warning in one of these groups"),
				"sort": map[string]interface{}{
					"type":        "string",
					"description": "recent (newest first) or shuffle",
					"enum":        []string{"recent", "shuffle"},
					"default":     "recent",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of records to return (1-100)",
					"default":     DefaultLimit,
					"minimum":     1,
					"maximum":     100,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of matches to skip",
					"default":     0,
					"minimum":     0,
				},
			},
		},
	}
}

// getColaTool returns the tool definition for get_cola
func getColaTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_cola",
		Description: "Fetch one COLA record with its images, label text and review warnings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"cola_id": map[string]interface{}{
					"type":        "string",
					"description": "14-digit COLA ID",
					"pattern":     "^[0-9]{14}$",
				},
			},
			Required: []string{"cola_id"},
		},
	}
}

// listFilterOptionsTool returns the tool definition for list_filter_options
func listFilterOptionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_filter_options",
		Description: "List the values accepted by the search_colas facets and the available date range",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// colaStatsTool returns the tool definition for cola_stats
func colaStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cola_stats",
		Description: "Summarize records by commodity and source, and review warnings by group",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
