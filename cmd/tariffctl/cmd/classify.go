package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
)

type classifyOptions struct {
	function   string
	typeHint   string
	maxResults int
	asJSON     bool
}

func newClassifyCommand(lexiconPath func() string) *cobra.Command {
	var opts classifyOptions

	cmd := &cobra.Command{
		Use:   "classify DESCRIPTION...",
		Short: "Suggest HS codes for a description",
		Long: `Rank HS/TARIC code suggestions for a machinery description.
Words after the command are joined into one description.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scoring := classifier.DefaultOptions()
			if opts.maxResults > 0 {
				scoring.MaxResults = opts.maxResults
			}
			engine, err := loadEngine(lexiconPath(), scoring)
			if err != nil {
				return err
			}

			input := domain.ClassificationInput{
				Description:  strings.Join(args, " "),
				FunctionHint: opts.function,
				TypeHint:     opts.typeHint,
			}
			resp := classifier.Format(engine.Evaluate(input), engine.Lexicon().Version)

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			renderClassification(cmd, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.function, "function", "", "function category id or label")
	cmd.Flags().StringVar(&opts.typeHint, "type", "", "machine type hint added to the description")
	cmd.Flags().IntVar(&opts.maxResults, "max", classifier.DefaultMaxResults, "maximum number of suggestions")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the response as JSON")

	return cmd
}

func renderClassification(cmd *cobra.Command, resp *domain.ClassificationResponse) {
	out := cmd.OutOrStdout()

	function := resp.FunctionCategory
	if function == "" {
		function = "-"
	}
	fmt.Fprintf(out, "Lexicon: %s  Function: %s\n", resp.LexiconVersion, function)

	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No suggestions")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "HS Code", "Confidence", "Description", "Rationale"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, WidthMax: 60},
		{Number: 5, WidthMax: 50},
	})
	for i, r := range resp.Results {
		t.AppendRow(table.Row{i + 1, r.HSCode, fmt.Sprintf("%.3f", r.Confidence), r.Description, r.Rationale})
	}
	t.Render()
}
