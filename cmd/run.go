package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/formulary-labs/formulation-cli/internal/model"
)

var (
	runIngredients string
	runCategory    string
	runPriceTier   string
	runConstraints []string
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and verify a formulation for a brief",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		brief := model.Brief{
			Category:    runCategory,
			Ingredients: runIngredients,
			PriceTier:   runPriceTier,
			Constraints: runConstraints,
		}

		result, err := env.Pipeline.Run(ctx, brief)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.String("category", result.Category),
			zap.Int("ingredients", len(result.Rows)),
			zap.Int("total_tokens", result.TokenUsage.Total()),
		)

		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		fmt.Println(result.Report)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runIngredients, "ingredients", "", "required ingredients, free text (required)")
	runCmd.Flags().StringVar(&runCategory, "category", "", "product category (auto-detected if empty)")
	runCmd.Flags().StringVar(&runPriceTier, "price-tier", "", "target price tier (budget, mid, premium)")
	runCmd.Flags().StringSliceVar(&runConstraints, "constraint", nil, "formulation constraint, repeatable")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print full result as JSON instead of the report")
	_ = runCmd.MarkFlagRequired("ingredients")
	rootCmd.AddCommand(runCmd)
}
