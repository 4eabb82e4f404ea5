package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/packeval/internal/httpapi"
	"github.com/fyrsmithlabs/packeval/internal/session"
)

// images holds repeated --image flags for the evaluate command.
var images []string

// evaluateCmd starts an evaluation
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [concept]",
	Short: "Start a packaging-concept evaluation",
	Long: `Start a packaging-concept evaluation on the packevald server.

The concept may be given as an argument or piped on stdin. The evaluation
runs until it parks for feedback on the component breakdown or, for
concepts that need no review loop, until the final score.

Examples:
  # Evaluate a concept
  pevalctl evaluate "Recyclable cardboard bottle carrier with handle"

  # Evaluate from stdin
  cat concept.txt | pevalctl evaluate -

  # Attach concept images
  pevalctl evaluate "Molded pulp tray" --image https://example.com/tray.jpg`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvaluate,
}

// statusCmd fetches a session snapshot
var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show an evaluation session",
	Long: `Fetch the current snapshot of an evaluation session.

Examples:
  pevalctl status 3f1c9a52-8e7b-4f7e-9c40-5b2d6f8a1e33`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

// retryCmd re-runs a stalled session
var retryCmd = &cobra.Command{
	Use:   "retry <session-id>",
	Short: "Retry a stalled evaluation session",
	Long: `Re-run a stalled evaluation session from its checkpoint. Stalled
sessions are those where a reasoning or retrieval call failed; the record is
unchanged from before the failed step.

Examples:
  pevalctl retry 3f1c9a52-8e7b-4f7e-9c40-5b2d6f8a1e33`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func init() {
	evaluateCmd.Flags().StringArrayVar(&images, "image", nil, "concept image URL or base64 data (repeatable)")
	rootCmd.AddCommand(retryCmd)
}

// runEvaluate handles the evaluate command
func runEvaluate(cmd *cobra.Command, args []string) error {
	var concept string
	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		concept = strings.TrimSpace(string(content))
	} else {
		concept = args[0]
	}

	if concept == "" {
		return fmt.Errorf("no concept to evaluate")
	}

	req := httpapi.EvaluationRequest{
		Concept: concept,
		Images:  images,
	}

	var sess session.Session
	err := postJSON("/api/v1/evaluations", req, &sess)
	if sess.ID != "" {
		printSession(&sess)
	}
	return err
}

// runStatus handles the status command
func runStatus(cmd *cobra.Command, args []string) error {
	var sess session.Session
	if err := getJSON("/api/v1/evaluations/"+url.PathEscape(args[0]), &sess); err != nil {
		return err
	}
	printSession(&sess)
	return nil
}

// runRetry handles the retry command
func runRetry(cmd *cobra.Command, args []string) error {
	var sess session.Session
	err := postJSON("/api/v1/evaluations/"+url.PathEscape(args[0])+"/retry", struct{}{}, &sess)
	if sess.ID != "" {
		printSession(&sess)
	}
	return err
}
