package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/archlens/internal/lang"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/pattern"
	"github.com/phobologic/archlens/internal/toon"
)

// newPatternsCmd implements `archlens patterns`, which lists the built-in
// pattern catalog.
func newPatternsCmd(stdout io.Writer) *cobra.Command {
	var category, language string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the patterns archlens recognizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := pattern.LoadCatalog()
			if err != nil {
				return fmt.Errorf("loading pattern catalog: %w", err)
			}
			patterns, err := selectPatterns(reg, category, language)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, listPatterns(patterns))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only list patterns in this category")
	cmd.Flags().StringVarP(&language, "language", "l", "", "only list patterns that apply to this language")
	return cmd
}

func selectPatterns(reg *pattern.Registry, category, language string) ([]pattern.Pattern, error) {
	patterns := reg.All()
	if category != "" {
		c := model.Category(category)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", category)
		}
		patterns = reg.ListByCategory(c)
	}
	if language != "" {
		if _, ok := lang.Languages[language]; !ok {
			return nil, fmt.Errorf("unsupported language %q", language)
		}
		if category == "" {
			return reg.ListByLanguage(language), nil
		}
		var kept []pattern.Pattern
		for _, p := range patterns {
			if pattern.Supports(p, language) {
				kept = append(kept, p)
			}
		}
		patterns = kept
	}
	return patterns, nil
}

func listPatterns(patterns []pattern.Pattern) string {
	rows := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		langs := strings.Join(p.Languages(), " ")
		if langs == "" {
			langs = "any"
		}
		rows = append(rows, []string{p.Name(), string(p.Category()), string(p.Layer()), langs, p.Description()})
	}
	return toon.Table("patterns", []string{"name", "category", "layer", "languages", "description"}, rows)
}
