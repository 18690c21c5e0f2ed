// Package condition provides the gating action: a false expression stops the
// run, recording the step as skipped.
package condition

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/protocol"
	"github.com/hubflow/hubflow/pkg/template"
)

type Action struct {
	left     string
	operator string
	right    string
}

func NewAction(config map[string]any) *Action {
	operator, _ := config["operator"].(string)
	if operator == "" {
		operator = "eq"
	}

	left, _ := config["left"].(string)
	right, _ := config["right"].(string)

	return &Action{
		left:     left,
		operator: operator,
		right:    right,
	}
}

func (a *Action) Execute(_ context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	left, err := template.RenderWithContext(a.left, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render left operand: %w", err)
	}

	right, err := template.RenderWithContext(a.right, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render right operand: %w", err)
	}

	matched, err := compare(left, a.operator, right)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"matched":  matched,
		"left":     left,
		"operator": a.operator,
		"right":    right,
	}

	if !matched {
		logger.Info("Condition evaluated false, gating remaining steps")

		return result, protocol.ErrConditionNotMet
	}

	return result, nil
}

func compare(left any, operator string, right any) (bool, error) {
	switch operator {
	case "eq":
		return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right), nil
	case "ne":
		return fmt.Sprintf("%v", left) != fmt.Sprintf("%v", right), nil
	case "contains":
		return strings.Contains(fmt.Sprintf("%v", left), fmt.Sprintf("%v", right)), nil
	case "gt", "gte", "lt", "lte":
		leftNum, err := toNumber(left)
		if err != nil {
			return false, fmt.Errorf("left operand is not numeric: %w", err)
		}

		rightNum, err := toNumber(right)
		if err != nil {
			return false, fmt.Errorf("right operand is not numeric: %w", err)
		}

		switch operator {
		case "gt":
			return leftNum > rightNum, nil
		case "gte":
			return leftNum >= rightNum, nil
		case "lt":
			return leftNum < rightNum, nil
		default:
			return leftNum <= rightNum, nil
		}
	default:
		return false, fmt.Errorf("unsupported condition operator: %s", operator)
	}
}

func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return strconv.ParseFloat(fmt.Sprintf("%v", v), 64)
	}
}
