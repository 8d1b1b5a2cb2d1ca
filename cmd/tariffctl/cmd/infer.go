package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
)

func newInferCommand(lexiconPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "infer DESCRIPTION...",
		Short: "Infer the function category of a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(lexiconPath(), classifier.DefaultOptions())
			if err != nil {
				return err
			}

			category, ok := engine.Functions().Infer(strings.Join(args, " "))
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No function category inferred")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", category.ID, category.Label)
			return nil
		},
	}
}
