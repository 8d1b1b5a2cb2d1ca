// Package cmd implements the tariffctl command-line interface for classifying
// machinery descriptions against the HS/TARIC lexicon offline.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
)

// NewRootCommand builds the tariffctl command tree.
func NewRootCommand() *cobra.Command {
	var lexiconPath string

	root := &cobra.Command{
		Use:           "tariffctl",
		Short:         "Suggest HS/TARIC codes for machinery descriptions",
		Long:          `Classify machinery descriptions against the HS/TARIC keyword lexicon and inspect the lexicon.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&lexiconPath, "lexicon", "", "lexicon YAML file (default is the embedded lexicon)")

	lexiconFlag := func() string { return lexiconPath }
	root.AddCommand(
		newClassifyCommand(lexiconFlag),
		newInferCommand(lexiconFlag),
		newLexiconCommand(lexiconFlag),
	)

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func loadEngine(path string, opts classifier.Options) (*classifier.Engine, error) {
	lex, err := lexicon.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	engine, err := classifier.NewEngine(lex, opts)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return engine, nil
}
