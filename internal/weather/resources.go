package weather

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReadWeatherResource serves reads of the weather://{location} template.
func ReadWeatherResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	location, ok := strings.CutPrefix(req.Params.URI, "weather://")
	if !ok || location == "" {
		return nil, fmt.Errorf("unknown resource %q", req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Weather data for %s: Sunny, 72°F", location),
		}},
	}, nil
}
