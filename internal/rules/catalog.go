// Package rules holds the lexical rule catalog and the engine that applies it
// to single sentences.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"book_insights/internal/apperr"
	"book_insights/internal/chapters"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Rule is one named pattern and the score a match earns.
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Score   int    `yaml:"score"`

	re *regexp.Regexp
}

// ShortQuote fires on sentences whose word count lies in [MinWords, MaxWords].
type ShortQuote struct {
	Enabled  bool `yaml:"enabled"`
	MinWords int  `yaml:"min_words"`
	MaxWords int  `yaml:"max_words"`
	Score    int  `yaml:"score"`
}

// Catalog is the static configuration of an analysis: chapter boundaries,
// primary rules, explanation rules and the short quote heuristic.
type Catalog struct {
	Chapters     []chapters.Boundary `yaml:"chapters"`
	Rules        []Rule              `yaml:"rules"`
	Explanations []Rule              `yaml:"explanations"`
	ShortQuote   ShortQuote          `yaml:"short_quote"`
}

type catalogFile struct {
	Chapters     []chapters.Boundary `yaml:"chapters"`
	Rules        []Rule              `yaml:"rules"`
	Explanations []Rule              `yaml:"explanations"`
	ShortQuote   *ShortQuote         `yaml:"short_quote"`
}

// Default returns the embedded catalog, validated.
func Default() (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(defaultCatalogYAML, &f); err != nil {
		return nil, apperr.NewConfigError("rule catalog", "embedded", err)
	}
	c := &Catalog{
		Chapters:     chapters.DefaultBoundaries(),
		Rules:        f.Rules,
		Explanations: f.Explanations,
	}
	if f.ShortQuote != nil {
		c.ShortQuote = *f.ShortQuote
	}
	if err := c.Compile(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse reads a catalog document. Sections missing from data keep their
// default; a section given as an empty list is empty.
func Parse(data []byte) (*Catalog, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperr.NewConfigError("rule catalog", "", err)
	}
	if f.Chapters != nil {
		c.Chapters = f.Chapters
	}
	if f.Rules != nil {
		c.Rules = f.Rules
	}
	if f.Explanations != nil {
		c.Explanations = f.Explanations
	}
	if f.ShortQuote != nil {
		c.ShortQuote = *f.ShortQuote
	}
	if err := c.Compile(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule catalog: %w", err)
	}
	return Parse(data)
}

// Compile validates every entry and compiles its pattern. Any failure is a
// configuration error naming the offending entry.
func (c *Catalog) Compile() error {
	seen := map[string]bool{}
	compile := func(kind string, list []Rule) error {
		for i := range list {
			r := &list[i]
			if r.Name == "" {
				return apperr.NewConfigError(kind, fmt.Sprintf("#%d", i), fmt.Errorf("empty name"))
			}
			if seen[r.Name] {
				return apperr.NewConfigError(kind, r.Name, fmt.Errorf("duplicate name"))
			}
			seen[r.Name] = true
			if r.Pattern == "" {
				return apperr.NewConfigError(kind, r.Name, fmt.Errorf("empty pattern"))
			}
			re, err := regexp.Compile(`(?i)` + r.Pattern)
			if err != nil {
				return apperr.NewConfigError(kind, r.Name, err)
			}
			r.re = re
		}
		return nil
	}
	if err := compile("rule", c.Rules); err != nil {
		return err
	}
	if err := compile("explanation rule", c.Explanations); err != nil {
		return err
	}
	if sq := c.ShortQuote; sq.Enabled && (sq.MinWords < 0 || sq.MaxWords < sq.MinWords) {
		return apperr.NewConfigError("short quote", "", fmt.Errorf("word range [%d, %d] is empty", sq.MinWords, sq.MaxWords))
	}
	if _, err := chapters.NewTracker(c.Chapters); err != nil {
		return err
	}
	return nil
}

// Marshal renders the catalog as a YAML document accepted by Parse.
func (c *Catalog) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal rule catalog: %w", err)
	}
	return out, nil
}
