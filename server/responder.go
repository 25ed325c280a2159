package server

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"time"
)

// Reply is a responder's answer to one message.
type Reply struct {
	Answer       string
	Tool         string
	ToolLatency  time.Duration
	ModelLatency time.Duration
}

// Responder produces answers for chat messages.
type Responder interface {
	Respond(ctx context.Context, userID, message string) Reply
}

// RuleResponder answers arithmetic with a calculator tool and echoes
// everything else. It stands in for a model during local development.
type RuleResponder struct{}

// CalculatorTool is the tool name reported for arithmetic answers.
const CalculatorTool = "calculator"

func (RuleResponder) Respond(_ context.Context, _ string, message string) Reply {
	start := time.Now()

	if expr, ok := arithmetic(message); ok {
		toolStart := time.Now()
		value, err := evaluate(expr)
		toolLatency := time.Since(toolStart)

		answer := fmt.Sprintf("%s = %s", expr, strconv.FormatFloat(value, 'f', -1, 64))
		if err != nil {
			answer = fmt.Sprintf("I could not calculate %s: %v", expr, err)
		}
		return Reply{
			Answer:       answer,
			Tool:         CalculatorTool,
			ToolLatency:  toolLatency,
			ModelLatency: time.Since(start),
		}
	}

	return Reply{
		Answer:       "You said: " + message,
		ModelLatency: time.Since(start),
	}
}

var calcPrefixes = []string{"what is", "what's", "calculate", "compute", "calc"}

// arithmetic extracts an arithmetic expression from msg, e.g.
// "What is 3 * (4 + 1)?" -> "3 * (4 + 1)".
func arithmetic(msg string) (string, bool) {
	expr := strings.ToLower(strings.TrimSpace(msg))
	for _, p := range calcPrefixes {
		if strings.HasPrefix(expr, p) {
			expr = strings.TrimSpace(expr[len(p):])
			break
		}
	}
	expr = strings.TrimSpace(strings.TrimRight(expr, "?=! "))

	var digits, operators int
	for _, r := range expr {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune("+-*/", r):
			operators++
		case strings.ContainsRune("(). ", r):
		default:
			return "", false
		}
	}
	return expr, digits > 0 && operators > 0
}

var errDivideByZero = errors.New("division by zero")

func evaluate(expr string) (float64, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid expression")
	}
	return eval(node)
}

func eval(node ast.Expr) (float64, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return 0, fmt.Errorf("unexpected literal %s", n.Value)
		}
		return strconv.ParseFloat(n.Value, 64)

	case *ast.ParenExpr:
		return eval(n.X)

	case *ast.UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		}

	case *ast.BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, errDivideByZero
			}
			return x / y, nil
		}
	}

	return 0, fmt.Errorf("unsupported expression")
}
