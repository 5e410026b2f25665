package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.yaml.in/yaml/v3"
)

// CatalogNames lists the catalog file names tried on a hub, in order.
var CatalogNames = []string{"Packages.yaml", "Packages.yml"}

// Catalog is the parsed hub index.
type Catalog struct {
	Entries []*Descriptor
}

// ParseCatalog decodes a multi-document catalog. Empty documents are
// skipped; an entry without meta.name is an error.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	cat := &Catalog{}
	for i := 1; ; i++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %v: %w", i, err, ErrMalformedCatalog)
		}
		if len(node.Content) == 0 || node.Content[0].Tag == "!!null" {
			continue
		}

		var d Descriptor
		if err := node.Decode(&d); err != nil {
			return nil, fmt.Errorf("document %d: %v: %w", i, err, ErrMalformedCatalog)
		}
		if d.Meta.Name == "" {
			return nil, fmt.Errorf("document %d has no meta.name: %w", i, ErrMalformedCatalog)
		}
		cat.Entries = append(cat.Entries, &d)
	}
	return cat, nil
}

// Lookup returns the entry named name.
func (c *Catalog) Lookup(name string) (*Descriptor, bool) {
	for _, e := range c.Entries {
		if e.Meta.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Names returns the entry names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		names[i] = e.Meta.Name
	}
	return names
}

// WriteCatalog encodes entries sorted by name as one document each.
func WriteCatalog(w io.Writer, entries []*Descriptor) error {
	sorted := append([]*Descriptor(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Meta.Name < sorted[j].Meta.Name
	})

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, d := range sorted {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encoding catalog entry %s: %w", d.Meta.Name, err)
		}
	}
	return enc.Close()
}
