package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/coursemind/coursemind/internal/app"
	"github.com/coursemind/coursemind/internal/config"
)

var ingestDocumentID string

var ingestCmd = &cobra.Command{
	Use:   "ingest <text-file>",
	Short: "Chunk, embed and index a document's extracted text",
	Long: `Reads a plain-text file (the output of the text-extraction service),
splits it into overlapping chunks, embeds each chunk and stores the
vectors in the chunks table. A random document id is generated unless
--document-id is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args[0])
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocumentID, "document-id", "", "document id (default: random)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(ctx context.Context, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	docID := uuid.New()
	if ingestDocumentID != "" {
		docID, err = uuid.Parse(ingestDocumentID)
		if err != nil {
			return fmt.Errorf("parsing document id: %w", err)
		}
	}

	text, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	logger := newLogger()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	result, err := a.Ingestor.Ingest(ctx, docID, string(text))
	if err != nil {
		return fmt.Errorf("ingesting document: %w", err)
	}

	fmt.Printf("document %s: %d chunks, %d stored, %d dropped\n",
		docID, result.Chunks, result.Stored, result.Dropped)
	return nil
}
