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
	batchOutput  string
	batchTimeout time.Duration
	caseWorkers  int
	claimWorkers int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <cases.csv>",
	Short: "Evaluate every case in a CSV file",
	Long: `Batch evaluates all cases from a CSV file with columns
id, book_name, char, content (and an optional label column):
- Each case is decided independently; one failure never aborts the batch
- Results are appended to the output CSV as cases complete, in input order
- Failed cases get a distinguishable placeholder row with the cause

Example:
  lorecheck batch test.csv
  lorecheck batch test.csv --output results.csv --case-workers 2`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchOutput, "output", "submission.csv", "output CSV path")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 2*time.Hour, "total timeout for batch processing")
	batchCmd.Flags().IntVar(&caseWorkers, "case-workers", 0, "concurrent cases (0 = config default)")
	batchCmd.Flags().IntVar(&claimWorkers, "claim-workers", 0, "concurrent claim evaluations per case (0 = config default)")
	batchCmd.Flags().StringVar(&booksDir, "books-dir", "", "directory of book files (overrides config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if booksDir != "" {
		cfg.Books.Dir = booksDir
	}
	if caseWorkers > 0 {
		cfg.Concurrency.CaseWorkers = caseWorkers
	}
	if claimWorkers > 0 {
		cfg.Concurrency.ClaimWorkers = claimWorkers
	}
	cfg.Output.Verbose = verbose

	cases, err := dataset.ReadCases(args[0])
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no cases found in %s", args[0])
	}

	p, library, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	if err := requireBooks(library); err != nil {
		return err
	}

	writer, err := dataset.NewResultWriter(batchOutput)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Processing %d case(s) from %s\n", len(cases), args[0])

	decided := 0
	failed := 0
	var writeErr error
	err = p.RunMany(ctx, cases, func(r pipeline.Result) {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ case %s: %v\n", r.Case.ID, r.Err)
			if err := writer.WriteFailure(r.Case, r.Err); err != nil && writeErr == nil {
				writeErr = err
			}
			return
		}
		decided++
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ case %s: %s\n", r.Case.ID, r.Decision.Label)
		}
		if err := writer.WriteDecision(r.Decision); err != nil && writeErr == nil {
			writeErr = err
		}
	})
	if err != nil {
		return fmt.Errorf("batch stopped: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("write results: %w", writeErr)
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d decided, %d failed, output: %s\n", decided, failed, batchOutput)
	return nil
}
