// Package fields holds the static field catalog and resolves which fields an
// output target needs.
package fields

import (
	_ "embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const (
	DefaultTopK = 6
	// FuncList is filled by module extraction rather than a per-field prompt.
	FuncList = "product__func_list"
)

// Spec describes how to find evidence for a field and what to ask for it.
type Spec struct {
	Name          string   `yaml:"name"`
	Prompt        string   `yaml:"prompt"`
	Query         string   `yaml:"query"`
	TitleKeywords []string `yaml:"title_keywords"`
	TopK          int      `yaml:"top_k"`
}

// Catalog is the parsed field catalog. It is read-only after Parse.
type Catalog struct {
	Fields       []Spec              `yaml:"fields"`
	Targets      map[string][]string `yaml:"targets"`
	Dependencies map[string][]string `yaml:"dependencies"`

	byName map[string]int
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewConfigError("read field catalog %s: %v", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, common.NewConfigError("parse field catalog: %v", err)
	}
	c.byName = make(map[string]int, len(c.Fields))
	for i, f := range c.Fields {
		if f.Name == "" {
			return nil, common.NewConfigError("field catalog entry %d has no name", i)
		}
		if _, dup := c.byName[f.Name]; dup {
			return nil, common.NewConfigError("field %q declared twice", f.Name)
		}
		c.byName[f.Name] = i
	}
	return &c, nil
}

// Spec returns the catalog entry for name. Fields missing from the catalog
// get a spec whose query is the field name with "__" replaced by a space.
func (c *Catalog) Spec(name string) Spec {
	s := Spec{Name: name}
	if i, ok := c.byName[name]; ok {
		s = c.Fields[i]
	}
	if s.Query == "" {
		s.Query = strings.ReplaceAll(name, "__", " ")
	}
	if s.TopK <= 0 {
		s.TopK = DefaultTopK
	}
	return s
}

// PromptSpecs returns, in catalog order, the fields that carry an extraction
// prompt and are in required. A nil set selects every prompted field.
func (c *Catalog) PromptSpecs(required Set) []Spec {
	var out []Spec
	for _, f := range c.Fields {
		if f.Prompt == "" {
			continue
		}
		if required != nil && !required.Has(f.Name) {
			continue
		}
		out = append(out, c.Spec(f.Name))
	}
	return out
}

// DependenciesOf returns the ordered alternatives field is derived from.
func (c *Catalog) DependenciesOf(field string) []string {
	return c.Dependencies[field]
}
