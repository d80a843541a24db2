package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lorecheck/lorecheck/internal/model"
)

var (
	checkBook      string
	checkCharacter string
	checkBackstory string
	checkFile      string
	checkJSON      string
	checkTimeout   time.Duration
	booksDir       string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one backstory against a book",
	Long: `Check evaluates a single character backstory:
- Decompose the backstory into atomic claims
- Retrieve the most relevant passages for each claim
- Judge every claim independently against its passages
- Combine the verdicts into a final consistent/contradict decision

Example:
  lorecheck check --book "Moby Dick" --character Ishmael --backstory-file story.txt
  lorecheck check --book Dracula --character Mina --backstory "She studied law." --json decision.json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkBook, "book", "", "book title (required)")
	checkCmd.Flags().StringVar(&checkCharacter, "character", "", "character name (required)")
	checkCmd.Flags().StringVar(&checkBackstory, "backstory", "", "backstory text")
	checkCmd.Flags().StringVar(&checkFile, "backstory-file", "", "file containing the backstory text")
	checkCmd.Flags().StringVar(&checkJSON, "json", "", "write the full decision as JSON to this path")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall timeout for the check")
	checkCmd.Flags().StringVar(&booksDir, "books-dir", "", "directory of book files (overrides config)")

	_ = checkCmd.MarkFlagRequired("book")
	_ = checkCmd.MarkFlagRequired("character")
}

func runCheck(cmd *cobra.Command, args []string) error {
	backstory := checkBackstory
	if backstory == "" && checkFile != "" {
		raw, err := os.ReadFile(checkFile)
		if err != nil {
			return fmt.Errorf("read backstory file: %w", err)
		}
		backstory = string(raw)
	}
	if backstory == "" {
		return fmt.Errorf("provide a backstory via --backstory or --backstory-file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if booksDir != "" {
		cfg.Books.Dir = booksDir
	}
	cfg.Output.Verbose = verbose

	p, library, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	if err := requireBooks(library); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking backstory for %s in %q\n", checkCharacter, checkBook)
	}

	decision, err := p.Run(ctx, model.Case{
		ID:        "check",
		Book:      checkBook,
		Character: checkCharacter,
		Backstory: backstory,
	})
	if err != nil {
		return err
	}

	renderDecision(decision)

	if checkJSON != "" {
		data, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal decision: %w", err)
		}
		if err := os.WriteFile(checkJSON, data, 0644); err != nil {
			return fmt.Errorf("write decision: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", checkJSON)
		}
	}
	return nil
}

// renderDecision prints a human-readable decision summary.
func renderDecision(d *model.Decision) {
	fmt.Printf("Decision:  %s\n", d.Label)
	fmt.Printf("Character: %s (%s)\n", d.Character, d.Book)
	fmt.Printf("Rationale: %s\n", d.Rationale)
	fmt.Printf("Claims (%d):\n", len(d.Judgments))
	for _, j := range d.Judgments {
		marker := " "
		if j.Degraded {
			marker = "!"
		}
		fmt.Printf("  %s [%s %.2f] %s\n", marker, j.Label, j.Confidence, j.Claim.Text)
	}
}
