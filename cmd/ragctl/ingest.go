package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vehicle-rag-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newIngestCmd(d *deps, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.pdf>...",
		Short: "Split PDFs into chunks and add them to the vector store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]dto.UploadedFile, 0, len(args))
			names := make([]string, 0, len(args))
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				name := filepath.Base(path)
				files = append(files, dto.UploadedFile{Name: name, Content: content})
				names = append(names, name)
			}

			cfg := d.loadConfig()
			rag, closeRag, err := d.openRag(cmd.Context(), cfg, d.newLogger(opts.verbose))
			if err != nil {
				return err
			}
			defer closeRag()

			count, err := rag.Ingest(cmd.Context(), files)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return json.NewEncoder(out).Encode(dto.UploadDocumentsResponse{IngestedCount: count, Files: names})
			}
			color.New(color.FgGreen).Fprintf(out, "Ingested %d chunks", count)
			fmt.Fprintf(out, " from %d file(s)\n", len(names))
			return nil
		},
	}
}
