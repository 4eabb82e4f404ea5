// Package main implements the pevalctl CLI for operations against the
// packevald HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/packeval/internal/session"
)

var (
	// serverURL is the base URL for the packevald HTTP server
	serverURL string
	// version information
	version = "dev"
)

// requestTimeout bounds CLI requests. Starting an evaluation runs every
// reasoning step up to the first suspension, so this is generous.
const requestTimeout = 10 * time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pevalctl",
	Short: "CLI for packevald HTTP server operations",
	Long: `pevalctl is a command-line interface for the packevald HTTP server.
It starts packaging-concept evaluations, submits feedback on component
breakdowns, and manages the knowledge base.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "packevald server URL")
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(knowledgeCmd)
	rootCmd.AddCommand(healthCmd)
}

// postJSON sends a JSON request body and decodes the JSON response into out.
// Responses outside 2xx still decode into out when the body is JSON, so
// stalled-session snapshots remain printable.
func postJSON(path string, body, out any) error {
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := serverURL + path
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// getJSON fetches a URL and decodes the JSON response into out.
func getJSON(path string, out any) error {
	url := serverURL + path

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Stalled and failed sessions come back with an error status but a
		// full snapshot body. Surface the snapshot when it decodes.
		if out != nil && json.Unmarshal(body, out) == nil {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// printSession writes a session snapshot in a readable form.
func printSession(sess *session.Session) {
	fmt.Printf("Session: %s\n", sess.ID)
	fmt.Printf("Status:  %s\n", sess.Status)
	if sess.Error != "" {
		fmt.Printf("Error:   %s\n", sess.Error)
	}
	if sess.Record == nil {
		return
	}

	fmt.Printf("Step:    %s\n", sess.Record.CurrentStep)
	if len(sess.Record.Messages) > 0 {
		fmt.Println()
		for _, msg := range sess.Record.Messages {
			fmt.Printf("[%s] %s\n", msg.Actor, msg.Text)
		}
	}

	if sess.Record.FinalEvaluation != nil {
		final := sess.Record.FinalEvaluation
		decision := "no-go"
		if final.GoDecision {
			decision = "go"
		}
		fmt.Println()
		fmt.Printf("Feasibility score: %d/10\n", final.Score)
		fmt.Printf("Decision:          %s\n", decision)
		fmt.Printf("Summary:           %s\n", final.ExecutiveSummary)
	}

	switch sess.Status {
	case session.StatusAwaitingFeedback:
		fmt.Fprintf(os.Stderr, "\n[pevalctl] Awaiting feedback. Review the components above, then run:\n")
		fmt.Fprintf(os.Stderr, "  pevalctl feedback %s --accept\n", sess.ID)
		fmt.Fprintf(os.Stderr, "  pevalctl feedback %s --reject --notes \"...\"\n", sess.ID)
	case session.StatusStalled:
		fmt.Fprintf(os.Stderr, "\n[pevalctl] Session stalled. Retry with:\n")
		fmt.Fprintf(os.Stderr, "  pevalctl retry %s\n", sess.ID)
	}
}
