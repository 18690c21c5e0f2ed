// Package template provides templating for dynamic step configuration values.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
)

// RenderWithContext renders a template string against a run's execution
// context. Exposed namespaces: .trigger (event context), .steps (prior step
// results by step id), .execution (run identifiers), .env.
func RenderWithContext(input string, executionCtx *models.ExecutionContext) (any, error) {
	data := map[string]any{
		"trigger": executionCtx.TriggerContext,
		"steps":   executionCtx.StepResults,
		"env":     getEnvVars(),
		"execution": map[string]any{
			"id":                   executionCtx.ID,
			"workflow_id":          executionCtx.WorkflowID,
			"event_name":           executionCtx.EventName,
			"triggering_object_id": executionCtx.TriggeringObjectID,
		},
	}

	return Render(input, data)
}

func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"rand": func(max int) int {
				if max <= 0 {
					return 0
				}

				num := make([]byte, 1)

				_, err := rand.Read(num)
				if err != nil {
					return 0
				}

				return int(num[0]) % max
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	// Coerce JSON-looking output into structured data
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString renders a template and returns the raw string result without
// JSON/number/bool coercion.
func RenderString(templateStr string, executionCtx *models.ExecutionContext) (string, error) {
	result, err := RenderWithContext(templateStr, executionCtx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%v", result), nil
}

// getEnvVars returns environment variables as a map.
func getEnvVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
