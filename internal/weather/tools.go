package weather

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// WeatherArgs are the arguments for the get_weather tool.
type WeatherArgs struct {
	Location string `json:"location" jsonschema:"the location to get weather for"`
}

// CalculateArgs are the arguments for the calculate tool. Operands arrive
// as strings because chat models serialize every argument as text.
type CalculateArgs struct {
	Operator  string `json:"operator" jsonschema:"the operation to perform, one of + - * / or add subtract multiply divide"`
	Argument1 string `json:"argument1" jsonschema:"the first numeric operand"`
	Argument2 string `json:"argument2" jsonschema:"the second numeric operand"`
}

// EvaluateArgs are the arguments for the evaluate tool.
type EvaluateArgs struct {
	Expression string `json:"expression" jsonschema:"an arithmetic expression to evaluate, e.g. (2 + 3) * 4"`
}

// GetWeather reports canned conditions for a location.
func GetWeather(_ context.Context, _ *mcp.CallToolRequest, args WeatherArgs) (*mcp.CallToolResult, any, error) {
	return textResult(fmt.Sprintf("Weather in %s: Sunny, 72°F", args.Location)), nil, nil
}

// Calculate applies one of the four basic arithmetic operations to two
// numeric operands. Bad operands, unknown operators, and division by zero
// are reported as tool errors, not protocol failures.
func Calculate(_ context.Context, _ *mcp.CallToolRequest, args CalculateArgs) (*mcp.CallToolResult, any, error) {
	result, err := calculate(args.Operator, args.Argument1, args.Argument2)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(result), nil, nil
}

func calculate(operator, argument1, argument2 string) (string, error) {
	a, err := strconv.ParseFloat(strings.TrimSpace(argument1), 64)
	if err != nil {
		return "", fmt.Errorf("argument1 %q is not a number", argument1)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(argument2), 64)
	if err != nil {
		return "", fmt.Errorf("argument2 %q is not a number", argument2)
	}

	var v float64
	switch normalizeOperator(operator) {
	case "+":
		v = a + b
	case "-":
		v = a - b
	case "*":
		v = a * b
	case "/":
		if b == 0 {
			return "", fmt.Errorf("division by zero")
		}
		v = a / b
	default:
		return "", fmt.Errorf("unknown operator %q", operator)
	}
	return formatNumber(v), nil
}

// normalizeOperator maps the word forms models tend to produce onto the
// four arithmetic symbols.
func normalizeOperator(op string) string {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "+", "add", "plus", "addition":
		return "+"
	case "-", "subtract", "minus", "subtraction":
		return "-"
	case "*", "x", "multiply", "times", "multiplication":
		return "*"
	case "/", "divide", "division", "divided by":
		return "/"
	}
	return op
}

// Evaluate runs an arithmetic expression and returns the result as text.
// It handles the compound expressions the calculator's fixed two-operand
// shape cannot express.
func Evaluate(_ context.Context, _ *mcp.CallToolRequest, args EvaluateArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Expression) == "" {
		return errorResult("empty expression"), nil, nil
	}

	result, err := expr.Eval(args.Expression, map[string]any{})
	if err != nil {
		return errorResult(fmt.Sprintf("evaluation error for %q: %v", args.Expression, err)), nil, nil
	}
	return textResult(formatValue(result)), nil, nil
}

func formatValue(v any) string {
	switch n := v.(type) {
	case float64:
		return formatNumber(n)
	default:
		return fmt.Sprintf("%v", n)
	}
}

// formatNumber renders a float without a trailing fractional part when the
// value is integral, so 5 * 6 reads as 30 rather than 30.000000.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
