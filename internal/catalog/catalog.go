package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the static reference data shown in college and field selectors
type Catalog struct {
	colleges      []string
	fieldsOfStudy []string
	collegeSet    map[string]struct{}
	fieldSet      map[string]struct{}
}

type catalogFile struct {
	Colleges      []string `yaml:"colleges"`
	FieldsOfStudy []string `yaml:"fields_of_study"`
}

var (
	defaultOnce sync.Once
	defaultData *Catalog
)

// Default returns the embedded catalog. It is parsed once and shared.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalog)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
		}
		defaultData = c
	})
	return defaultData
}

// Load reads a catalog from path, or returns the embedded one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Blank and duplicate entries are dropped.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{}
	c.colleges, c.collegeSet = normalize(f.Colleges)
	c.fieldsOfStudy, c.fieldSet = normalize(f.FieldsOfStudy)

	if len(c.colleges) == 0 {
		return nil, fmt.Errorf("catalog has no colleges")
	}
	if len(c.fieldsOfStudy) == 0 {
		return nil, fmt.Errorf("catalog has no fields of study")
	}
	return c, nil
}

func normalize(values []string) ([]string, map[string]struct{}) {
	list := make([]string, 0, len(values))
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := set[v]; dup {
			continue
		}
		set[v] = struct{}{}
		list = append(list, v)
	}
	return list, set
}

// Colleges returns the colleges in catalog order
func (c *Catalog) Colleges() []string {
	return append([]string(nil), c.colleges...)
}

// FieldsOfStudy returns the fields of study in catalog order
func (c *Catalog) FieldsOfStudy() []string {
	return append([]string(nil), c.fieldsOfStudy...)
}

func (c *Catalog) HasCollege(name string) bool {
	_, ok := c.collegeSet[strings.TrimSpace(name)]
	return ok
}

func (c *Catalog) HasFieldOfStudy(name string) bool {
	_, ok := c.fieldSet[strings.TrimSpace(name)]
	return ok
}
