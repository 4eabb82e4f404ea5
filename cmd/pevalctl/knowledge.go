package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/packeval/internal/httpapi"
)

var searchK int

// knowledgeCmd groups knowledge-base operations
var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the packaging knowledge base",
}

// knowledgeAddCmd ingests an entry or document
var knowledgeAddCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Ingest a knowledge entry from a JSON file or stdin",
	Long: `Ingest a knowledge entry. The input is a JSON object whose "type"
field selects the payload: machine, material, process, or document.

Examples:
  # Ingest a machine specification
  pevalctl knowledge add machine.json

  # Ingest a reference document from stdin
  jq -n --rawfile c handbook.txt \
    '{type: "document", document: {name: "handbook", content: $c}}' |
    pevalctl knowledge add -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKnowledgeAdd,
}

// knowledgeSearchCmd runs a similarity search
var knowledgeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Long: `Run a similarity search over the knowledge base.

Examples:
  pevalctl knowledge search "corrugated cardboard load limits"
  pevalctl knowledge search "flexo printing" --k 10`,
	Args: cobra.ExactArgs(1),
	RunE: runKnowledgeSearch,
}

func init() {
	knowledgeSearchCmd.Flags().IntVar(&searchK, "k", 5, "number of results")
	knowledgeCmd.AddCommand(knowledgeAddCmd)
	knowledgeCmd.AddCommand(knowledgeSearchCmd)
}

// runKnowledgeAdd handles the knowledge add command
func runKnowledgeAdd(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	var req httpapi.IngestRequest
	if err := json.Unmarshal(content, &req); err != nil {
		return fmt.Errorf("invalid entry JSON: %w", err)
	}

	var resp httpapi.IngestResponse
	if err := postJSON("/api/v1/knowledge", req, &resp); err != nil {
		return err
	}

	for _, entry := range resp.Entries {
		fmt.Printf("%s  %s\n", entry.ID, entry.Type)
	}
	fmt.Fprintf(os.Stderr, "[pevalctl] Ingested %d entr%s\n",
		len(resp.Entries), plural(len(resp.Entries), "y", "ies"))
	return nil
}

// runKnowledgeSearch handles the knowledge search command
func runKnowledgeSearch(cmd *cobra.Command, args []string) error {
	query := url.Values{}
	query.Set("q", args[0])
	query.Set("k", strconv.Itoa(searchK))

	var resp httpapi.SearchResponse
	if err := getJSON("/api/v1/knowledge/search?"+query.Encode(), &resp); err != nil {
		return err
	}

	if len(resp.Entries) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, entry := range resp.Entries {
		if i > 0 {
			fmt.Println("---")
		}
		fmt.Printf("[%s] %s\n", entry.Type, entry.ID)
		fmt.Println(entry.Content)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
