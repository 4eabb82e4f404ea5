package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/packeval/internal/httpapi"
	"github.com/fyrsmithlabs/packeval/internal/session"
)

var (
	feedbackAccept  bool
	feedbackReject  bool
	feedbackNotes   []string
	feedbackChanges []string
)

// feedbackCmd submits feedback on a parked session
var feedbackCmd = &cobra.Command{
	Use:   "feedback <session-id>",
	Short: "Submit feedback on a component breakdown",
	Long: `Submit feedback on the component breakdown of a parked evaluation
session and resume it.

Accepting sends the evaluation on to the technical assessment. Rejecting
sends it back to re-derive the components with your notes and suggested
changes applied.

Examples:
  # Approve the breakdown
  pevalctl feedback 3f1c9a52-... --accept

  # Reject with guidance
  pevalctl feedback 3f1c9a52-... --reject \
    --notes "The lid is PET, not PP" \
    --change "Swap lid material to PET" \
    --change "Add tamper-evident band"`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackAccept, "accept", false, "approve the component breakdown")
	feedbackCmd.Flags().BoolVar(&feedbackReject, "reject", false, "reject the component breakdown")
	feedbackCmd.Flags().StringArrayVar(&feedbackNotes, "notes", nil, "feedback notes (repeatable)")
	feedbackCmd.Flags().StringArrayVar(&feedbackChanges, "change", nil, "suggested change (repeatable)")
	feedbackCmd.MarkFlagsOneRequired("accept", "reject")
	feedbackCmd.MarkFlagsMutuallyExclusive("accept", "reject")
}

// runFeedback handles the feedback command
func runFeedback(cmd *cobra.Command, args []string) error {
	if feedbackReject && len(feedbackNotes) == 0 && len(feedbackChanges) == 0 {
		return fmt.Errorf("rejecting requires --notes or --change so the breakdown can be re-derived")
	}

	req := httpapi.FeedbackRequest{
		IsCorrect:        feedbackAccept,
		Notes:            feedbackNotes,
		SuggestedChanges: feedbackChanges,
	}

	var sess session.Session
	err := postJSON("/api/v1/evaluations/"+url.PathEscape(args[0])+"/feedback", req, &sess)
	if sess.ID != "" {
		printSession(&sess)
	}
	return err
}
