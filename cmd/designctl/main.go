// designctl runs the specification pipeline offline: generate a spec from a
// prompt, evaluate a spec from a file, or run a full training session,
// printing JSON to stdout.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specfoundry/design-orchestrator/internal/evaluation"
	"github.com/specfoundry/design-orchestrator/internal/extraction"
	"github.com/specfoundry/design-orchestrator/internal/reward"
	"github.com/specfoundry/design-orchestrator/internal/rlloop"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

func main() {
	root := &cobra.Command{
		Use:           "designctl",
		Short:         "Run the design specification pipeline from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(generateCmd(), evaluateCmd(), trainCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Extract a structured specification from a prompt and evaluate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor := extraction.New()
			generated, err := extractor.Extract(args[0])
			if err != nil {
				return err
			}

			result := evaluation.New().Evaluate(generated, args[0])
			return printJSON(map[string]any{
				"spec":        generated,
				"evaluation":  result,
				"suggestions": result.Suggestions(),
				"reward":      reward.Compute(result),
			})
		},
	}
}

func evaluateCmd() *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "evaluate <spec.json>",
		Short: "Evaluate a specification from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read spec file: %w", err)
			}
			var sp spec.Specification
			if err := json.Unmarshal(data, &sp); err != nil {
				return fmt.Errorf("failed to parse spec file: %w", err)
			}

			result := evaluation.New().Evaluate(sp, prompt)
			return printJSON(map[string]any{
				"evaluation":  result,
				"suggestions": result.Suggestions(),
				"reward":      reward.Compute(result),
			})
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "original prompt, for type-match checking")
	return cmd
}

func trainCmd() *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "train <prompt>",
		Short: "Run the improvement loop over a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if iterations < 1 {
				return fmt.Errorf("iterations must be at least 1")
			}

			loop := rlloop.New(extraction.New())
			result, err := loop.Run(cmd.Context(), args[0], iterations)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 3, "iteration budget")
	return cmd
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
