// Package weather implements the example MCP tool server used throughout
// the chat documentation. It exposes a canned weather tool, a four-function
// calculator, an expression evaluator, a weather resource, and a report
// prompt over the MCP stdio transport.
package weather

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// ServerName identifies the demo server to MCP clients.
	ServerName = "Weather Service"
	// ServerVersion is reported during the MCP handshake.
	ServerVersion = "0.1.0"
)

// NewServer builds the demo server with all tools, resources, and prompts
// registered. Input schemas for the tools are inferred from the argument
// struct tags.
func NewServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_weather",
		Description: "Get the current weather for a specified location.",
	}, GetWeather)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculate",
		Description: "Provide a basic four function calculator that can add, subtract, multiply or divide two numeric arguments.",
	}, Calculate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "evaluate",
		Description: "Evaluate an arithmetic expression and return the result.",
	}, Evaluate)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "weather://{location}",
		Name:        "weather",
		Description: "Provide weather data as a resource.",
		MIMEType:    "text/plain",
	}, ReadWeatherResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "weather_report",
		Description: "Create a weather report prompt.",
		Arguments: []*mcp.PromptArgument{{
			Name:        "location",
			Description: "The location to report on.",
			Required:    true,
		}},
	}, WeatherReport)

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult reports a failed tool invocation as result text rather than
// a protocol error, so the calling model can read and recover from it.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
