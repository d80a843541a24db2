package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lorecheck/lorecheck/internal/dataset"
	"github.com/lorecheck/lorecheck/internal/pipeline"
)

var (
	validateLimit   int
	validateTimeout time.Duration
)

// validateCmd checks pipeline accuracy against labeled cases.
var validateCmd = &cobra.Command{
	Use:   "validate <train.csv>",
	Short: "Score the pipeline against labeled cases",
	Long: `Validate runs the pipeline over a labeled CSV (same columns as batch
plus a label column with the expected consistent/contradict outcome)
and reports per-case hits and overall accuracy.

Example:
  lorecheck validate train.csv --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().IntVar(&validateLimit, "limit", 5, "maximum labeled cases to evaluate (0 = all)")
	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 30*time.Minute, "total timeout for validation")
	validateCmd.Flags().StringVar(&booksDir, "books-dir", "", "directory of book files (overrides config)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if booksDir != "" {
		cfg.Books.Dir = booksDir
	}
	cfg.Output.Verbose = verbose

	cases, err := dataset.ReadCases(args[0])
	if err != nil {
		return err
	}

	labeled := cases[:0:0]
	for _, c := range cases {
		if c.Truth != "" {
			labeled = append(labeled, c)
		}
	}
	if len(labeled) == 0 {
		return fmt.Errorf("no labeled cases found in %s", args[0])
	}
	if validateLimit > 0 && len(labeled) > validateLimit {
		labeled = labeled[:validateLimit]
	}

	p, library, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	if err := requireBooks(library); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Validating against %d labeled case(s)\n\n", len(labeled))

	correct := 0
	failed := 0
	err = p.RunMany(ctx, labeled, func(r pipeline.Result) {
		if r.Err != nil {
			failed++
			fmt.Printf("✗ case %s: error: %v\n", r.Case.ID, r.Err)
			return
		}
		mark := "✗"
		if r.Decision.Label == r.Case.Truth {
			correct++
			mark = "✓"
		}
		fmt.Printf("%s case %s: predicted %s, expected %s\n",
			mark, r.Case.ID, r.Decision.Label, r.Case.Truth)
	})
	if err != nil {
		return fmt.Errorf("validation stopped: %w", err)
	}

	scored := len(labeled) - failed
	fmt.Printf("\nAccuracy: %d/%d", correct, scored)
	if scored > 0 {
		fmt.Printf(" (%.1f%%)", 100*float64(correct)/float64(scored))
	}
	fmt.Println()
	if failed > 0 {
		fmt.Printf("Failed to evaluate: %d\n", failed)
	}
	return nil
}
