package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
)

func newLexiconCommand(lexiconPath func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Inspect and validate the lexicon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newLexiconValidateCommand(lexiconPath), newLexiconShowCommand(lexiconPath))
	return cmd
}

func newLexiconValidateCommand(lexiconPath func() string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a lexicon file",
		Long:  `Parse and validate a lexicon file. Without --file the --lexicon path or the embedded lexicon is checked.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := file
			if path == "" {
				path = lexiconPath()
			}

			lex, err := lexicon.Load(path)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK %s version=%s entries=%d function_categories=%d checksum=%s\n",
				lex.Source, lex.Version, len(lex.Entries), len(lex.FunctionCategories), lex.Checksum)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "lexicon YAML file to validate")
	return cmd
}

func newLexiconShowCommand(lexiconPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print function categories and entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lex, err := lexicon.Load(lexiconPath())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Lexicon %s (%s)\n", lex.Version, lex.Checksum)

			categories := table.NewWriter()
			categories.SetOutputMirror(out)
			categories.SetStyle(table.StyleLight)
			categories.SetTitle("Function categories (priority order)")
			categories.AppendHeader(table.Row{"#", "ID", "Label", "Terms"})
			for i, c := range lex.FunctionCategories {
				categories.AppendRow(table.Row{i + 1, c.ID, c.Label, len(c.Terms)})
			}
			categories.Render()

			entries := table.NewWriter()
			entries.SetOutputMirror(out)
			entries.SetStyle(table.StyleLight)
			entries.SetTitle("Entries")
			entries.AppendHeader(table.Row{"HS Code", "Label", "Functions", "Duty"})
			entries.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 70}})
			for _, e := range lex.Entries {
				entries.AppendRow(table.Row{e.HSCode, e.Label, strings.Join(e.Functions, ", "), e.DutyHint})
			}
			entries.AppendFooter(table.Row{"", fmt.Sprintf("%d entries", len(lex.Entries)), "", ""})
			entries.Render()
			return nil
		},
	}
}
