package inventory

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/pattern"
)

// ErrTaxonomyNotFound is returned when the configured taxonomy file is missing.
var ErrTaxonomyNotFound = errors.New("standards taxonomy not found")

//go:embed poct1_standards.yaml
var defaultTaxonomy []byte

// Keys in a taxonomy file that are not categories.
var reservedKeys = map[string]bool{
	"metadata": true,
	"patterns": true,
}

// CategoryPrefixes is one taxonomy category and the message prefixes it owns.
type CategoryPrefixes struct {
	Category model.Category
	Prefixes []string
}

// Taxonomy is an ordered list of categories. Lookup is first match in file
// order, so a prefix listed under two categories belongs to the earlier one.
type Taxonomy struct {
	Categories []CategoryPrefixes
	Metadata   map[string]any
}

// LoadTaxonomy reads a JSON or YAML taxonomy file.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTaxonomyNotFound, path)
		}
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}
	t, err := ParseTaxonomy(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadTaxonomyOrDefault loads path, or the built-in POCT1 taxonomy when path is empty.
func LoadTaxonomyOrDefault(path string) (*Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}
	return LoadTaxonomy(path)
}

// DefaultTaxonomy returns the built-in POCT1-A taxonomy.
func DefaultTaxonomy() *Taxonomy {
	t, err := ParseTaxonomy(defaultTaxonomy)
	if err != nil {
		panic("inventory: embedded taxonomy: " + err.Error())
	}
	return t
}

// ParseTaxonomy decodes a taxonomy document. JSON input is accepted since it
// is valid YAML; key order is taken from the document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("taxonomy is empty")
	}
	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("taxonomy must be a mapping, got line %d", body.Line)
	}

	t := &Taxonomy{}
	for i := 0; i+1 < len(body.Content); i += 2 {
		key, val := body.Content[i].Value, body.Content[i+1]
		if reservedKeys[key] {
			if key == "metadata" && val.Kind == yaml.MappingNode {
				if err := val.Decode(&t.Metadata); err != nil {
					return nil, fmt.Errorf("taxonomy metadata: %w", err)
				}
			}
			continue
		}
		if val.Kind != yaml.SequenceNode {
			continue
		}
		var prefixes []string
		if err := val.Decode(&prefixes); err != nil {
			return nil, fmt.Errorf("taxonomy category %q: %w", key, err)
		}
		t.Categories = append(t.Categories, CategoryPrefixes{Category: model.Category(key), Prefixes: prefixes})
	}
	return t, nil
}

// Lookup returns the first category listing prefix.
func (t *Taxonomy) Lookup(prefix string) (model.Category, bool) {
	for _, c := range t.Categories {
		for _, p := range c.Prefixes {
			if p == prefix {
				return c.Category, true
			}
		}
	}
	return "", false
}

// Categorize assigns a category to a message id. Vendor extensions are
// checked before the taxonomy and are always recognized.
func (t *Taxonomy) Categorize(id string) (cat model.Category, recognized bool) {
	prefix := pattern.MessagePrefix(id)
	if pattern.VendorPrefix.MatchString(prefix) || pattern.IsVendorMultiSegment(id) {
		return model.CategoryVendorSpecific, true
	}
	if c, ok := t.Lookup(prefix); ok {
		return c, true
	}
	return model.CategoryUnrecognized, false
}

// plausiblePrefix reports whether an unknown prefix looks like a real POCT1
// message segment (three uppercase letters).
func plausiblePrefix(prefix string) bool {
	if len(prefix) != 3 {
		return false
	}
	for _, r := range prefix {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
