package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func parseOutputFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", outputTable:
		return outputTable, nil
	case outputJSON, outputYAML:
		return f, nil
	default:
		return "", common.NewUserError(
			fmt.Sprintf("unknown output format %q (want table, json or yaml)", s),
			common.ErrInvalidConfig)
	}
}

// goalOutput is the machine readable form of a goal.
type goalOutput struct {
	model.Goal `yaml:",inline"`
	Remaining  decimal.Decimal `json:"remaining" yaml:"remaining"`
	Progress   float64         `json:"progress" yaml:"progress"`
	Completed  bool            `json:"completed" yaml:"completed"`
}

func newGoalOutput(g model.Goal) goalOutput {
	return goalOutput{
		Goal:      g,
		Remaining: g.Remaining(),
		Progress:  g.Progress(),
		Completed: g.IsCompleted(),
	}
}

func newGoalOutputs(goals []model.Goal) []goalOutput {
	out := make([]goalOutput, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalOutput(g))
	}
	return out
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s is not a structured format", common.ErrInvalidConfig, format)
	}
	return nil
}
