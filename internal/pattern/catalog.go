package pattern

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/archlens/internal/model"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type catalogFile struct {
	Patterns []catalogEntry `yaml:"patterns"`
}

type catalogEntry struct {
	Name          string            `yaml:"name"`
	Category      string            `yaml:"category"`
	Kind          string            `yaml:"kind"`
	Description   string            `yaml:"description"`
	Layer         string            `yaml:"layer"`
	Queries       map[string]string `yaml:"queries"`
	NameCapture   string            `yaml:"name_capture"`
	AnchorCapture string            `yaml:"anchor_capture"`
	Constraints   []Constraint      `yaml:"constraints"`
	Rule          string            `yaml:"rule"`
	Within        int               `yaml:"within"`
	Parts         []string          `yaml:"parts"`
}

// LoadCatalog builds a registry from the built-in catalog followed by any
// extra catalogs, in order. A name defined twice is a *model.DuplicateNameError.
func LoadCatalog(extra ...[]byte) (*Registry, error) {
	b := NewRegistryBuilder()
	if err := b.RegisterCatalog(builtinCatalog); err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	for i, data := range extra {
		if err := b.RegisterCatalog(data); err != nil {
			return nil, fmt.Errorf("catalog %d: %w", i+1, err)
		}
	}
	return b.Build(), nil
}

// RegisterCatalog decodes a YAML catalog and registers its patterns in
// document order. Composite parts may name any pattern registered earlier.
func (b *RegistryBuilder) RegisterCatalog(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var file catalogFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding catalog: %w", err)
	}

	for _, e := range file.Patterns {
		p, err := b.fromEntry(e)
		if err != nil {
			return err
		}
		if err := b.Register(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *RegistryBuilder) fromEntry(e catalogEntry) (Pattern, error) {
	if e.Rule == "" {
		if len(e.Parts) > 0 {
			return nil, fmt.Errorf("pattern %s: parts without a rule", e.Name)
		}
		return NewQueryPattern(QuerySpec{
			Name:          e.Name,
			Category:      model.Category(e.Category),
			Kind:          e.Kind,
			Description:   e.Description,
			Layer:         model.Layer(e.Layer),
			Queries:       e.Queries,
			NameCapture:   e.NameCapture,
			AnchorCapture: e.AnchorCapture,
			Constraints:   e.Constraints,
		})
	}

	if len(e.Queries) > 0 {
		return nil, fmt.Errorf("pattern %s: composite patterns take parts, not queries", e.Name)
	}
	parts := make([]Pattern, 0, len(e.Parts))
	for _, name := range e.Parts {
		part, ok := b.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("pattern %s: part %q is not defined before it", e.Name, name)
		}
		parts = append(parts, part)
	}
	return NewCompositePattern(CompositeSpec{
		Name:        e.Name,
		Category:    model.Category(e.Category),
		Kind:        e.Kind,
		Description: e.Description,
		Layer:       model.Layer(e.Layer),
		Rule:        Rule(e.Rule),
		Within:      e.Within,
		Parts:       parts,
	})
}
