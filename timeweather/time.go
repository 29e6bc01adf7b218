package timeweather

import (
	"context"
	"fmt"
	"time"

	"timeweathermcp/mcp"
	"timeweathermcp/registry"
)

// timeFormat renders like "2026-01-02 15:04:05 IST+0530".
const timeFormat = "2006-01-02 15:04:05 MST-0700"

type timeArgs struct {
	InputTimezone string `json:"input_timezone,omitempty"`
}

// TimeTool returns the time_tool definition. The timezone argument is
// optional; without it the server's local zone is used.
func TimeTool() registry.Definition {
	desc := mcp.Tool{
		Name:        "time_tool",
		Description: "Get current time for a timezone (e.g. Asia/Kolkata)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]mcp.SchemaProperty{
				"input_timezone": {
					Type:        "string",
					Description: "Timezone identifier (e.g., 'Asia/Kolkata', 'America/New_York'). Optional, defaults to system timezone.",
				},
			},
			AdditionalProperties: false,
		},
	}

	return registry.TypedTool(desc, func(ctx context.Context, args timeArgs) (*mcp.CallToolResult, error) {
		now := time.Now()
		if args.InputTimezone != "" {
			loc, err := time.LoadLocation(args.InputTimezone)
			if err != nil {
				return registry.TextResult(fmt.Sprintf("Invalid timezone '%s'. Error: %v", args.InputTimezone, err)), nil
			}
			now = now.In(loc)
		}
		return registry.TextResult(fmt.Sprintf("The current time is %s.", now.Format(timeFormat))), nil
	})
}
