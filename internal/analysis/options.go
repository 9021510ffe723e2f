package analysis

import (
	"book_insights/internal/config"
	"book_insights/internal/rules"
	"book_insights/internal/segment"
)

// OptionsFromConfig resolves the catalog and segmentation policy named by
// cfg. Progress and logger are left for the caller.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	catalog, err := LoadCatalog(cfg)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Source:  cfg.Input.Path,
		Catalog: catalog,
		Segmenter: segment.Segmenter{
			MinWords:     cfg.Segment.MinWords,
			NoisePhrases: cfg.NoisePhrases(),
		},
		Dedup:   cfg.Dedup.Enabled,
		Workers: cfg.Workers,
	}, nil
}

// LoadCatalog returns the embedded catalog, or the file named by
// rules.file, with the explanation and short quote toggles applied.
func LoadCatalog(cfg config.Config) (*rules.Catalog, error) {
	var (
		catalog *rules.Catalog
		err     error
	)
	if cfg.Rules.File != "" {
		catalog, err = rules.LoadFile(cfg.Rules.File)
	} else {
		catalog, err = rules.Default()
	}
	if err != nil {
		return nil, err
	}
	if !cfg.Rules.Explanations {
		catalog.Explanations = nil
	}
	if !cfg.Rules.ShortQuote {
		catalog.ShortQuote.Enabled = false
	}
	return catalog, nil
}
