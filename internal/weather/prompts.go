package weather

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// WeatherReport builds the weather-reporter prompt for a location.
func WeatherReport(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	location := req.Params.Arguments["location"]
	if location == "" {
		return nil, fmt.Errorf("missing required argument: location")
	}

	return &mcp.GetPromptResult{
		Description: "A weather report request for " + location,
		Messages: []*mcp.PromptMessage{{
			Role: "user",
			Content: &mcp.TextContent{
				Text: fmt.Sprintf("You are a weather reporter. Weather report for %s?", location),
			},
		}},
	}, nil
}
