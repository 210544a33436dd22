package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"vehicle-rag-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type queryOptions struct {
	topK         int
	vehicleMake  string
	vehicleModel string
	year         int
}

func newQueryCmd(d *deps, opts *rootOptions) *cobra.Command {
	qo := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question against the ingested manuals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if qo.topK < 1 || qo.topK > dto.MaxTopK {
				return fmt.Errorf("--top-k must be between 1 and %d", dto.MaxTopK)
			}

			question := strings.Join(args, " ")
			req := &dto.QueryRequest{Query: &question, TopK: &qo.topK}
			if qo.vehicleMake != "" || qo.vehicleModel != "" || qo.year != 0 {
				req.Vehicle = &dto.QueryVehicleContext{Make: &qo.vehicleMake, Model: &qo.vehicleModel}
				if qo.year != 0 {
					req.Vehicle.Year = &qo.year
				}
			}

			cfg := d.loadConfig()
			rag, closeRag, err := d.openRag(cmd.Context(), cfg, d.newLogger(opts.verbose))
			if err != nil {
				return err
			}
			defer closeRag()

			res, err := rag.Query(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printAnswer(cmd, res)
			return nil
		},
	}
	cmd.Flags().IntVarP(&qo.topK, "top-k", "k", dto.DefaultTopK, "number of excerpts to retrieve")
	cmd.Flags().StringVar(&qo.vehicleMake, "make", "", "vehicle make")
	cmd.Flags().StringVar(&qo.vehicleModel, "model", "", "vehicle model")
	cmd.Flags().IntVar(&qo.year, "year", 0, "vehicle model year")
	return cmd
}

func printAnswer(cmd *cobra.Command, res *dto.QueryResponse) {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	bold.Fprintln(out, "Answer:")
	fmt.Fprintln(out, res.Answer)

	if len(res.SuggestedActions) > 0 {
		fmt.Fprintln(out)
		bold.Fprintln(out, "Suggested actions:")
		for i, a := range res.SuggestedActions {
			fmt.Fprintf(out, "  %d. %s\n", i+1, a)
		}
	}

	fmt.Fprintln(out)
	if len(res.Sources) == 0 {
		dim.Fprintln(out, "No sources found.")
		return
	}
	bold.Fprintln(out, "Sources:")
	for i, s := range res.Sources {
		page := "?"
		if s.Page != nil {
			page = fmt.Sprint(*s.Page)
		}
		color.New(color.FgCyan).Fprintf(out, "  [%d] %s p.%s", i+1, s.Source, page)
		dim.Fprintf(out, " (%.4f)\n", s.Score)
		if text := snippet(s.Text, 160); text != "" {
			fmt.Fprintf(out, "      %s\n", text)
		}
	}
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
