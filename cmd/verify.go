package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/formulary-labs/formulation-cli/internal/pipeline"
)

var (
	verifyFile string
	verifyJSON bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify ingredients in an existing formulation text",
	Long:  "Reads formulation text from --file or stdin, extracts the ingredient list, and verifies each ingredient without generating anything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, err := readInput(verifyFile)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.VerifyText(ctx, text)
		if err != nil {
			if eris.Is(err, pipeline.ErrNothingParseable) {
				return eris.New("no ingredients found: input has no recognizable table or list")
			}
			return eris.Wrap(err, "verify")
		}

		if verifyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		fmt.Println(result.Report)
		return nil
	},
}

func readInput(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrapf(err, "read %s", path)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", eris.Wrap(err, "read stdin")
	}
	return string(data), nil
}

func init() {
	verifyCmd.Flags().StringVar(&verifyFile, "file", "", "formulation text file (defaults to stdin)")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print full result as JSON instead of the report")
	rootCmd.AddCommand(verifyCmd)
}
