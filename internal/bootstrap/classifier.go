package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/config"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

// SetupEngine loads the lexicon and builds the classification engine.
// Any lexicon error is fatal for the service.
func SetupEngine(cfg *config.Config, log infralogger.Logger, tp *telemetry.Provider) (*classifier.Engine, error) {
	lex, err := lexicon.Load(cfg.Classification.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	engine, err := classifier.NewEngine(lex, cfg.Classification.ScoringOptions())
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	if tp != nil {
		tp.SetLexicon(lex.Version, lex.Checksum)
	}

	opts := engine.Options()
	log.Info("Lexicon loaded",
		infralogger.String("version", lex.Version),
		infralogger.String("checksum", lex.Checksum),
		infralogger.String("source", lex.Source),
		infralogger.Int("entries", len(lex.Entries)),
		infralogger.Int("function_categories", len(lex.FunctionCategories)),
		infralogger.Float64("base_weight", opts.BaseWeight),
		infralogger.Float64("function_boost", opts.FunctionBoost),
		infralogger.Float64("term_boost", opts.TermBoost),
		infralogger.Int("max_results", opts.MaxResults),
	)

	return engine, nil
}
