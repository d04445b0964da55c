// Package catalog loads the current item set that history events refer to.
//
// A catalog file is YAML (.yaml, .yml) or CUE (.cue). Loading is read-only
// with respect to history; Normalize and Sync bring the event log in line
// with the catalog when item identifiers change.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stocklite/stocklite/internal/model"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor CUE.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// Entry is one catalog item plus the identifier it was previously known by.
type Entry struct {
	Item model.Item

	// LegacyID is an earlier id whose events belong to this item.
	LegacyID string
}

// Catalog is an ordered item set.
type Catalog struct {
	Entries []Entry
}

// Items returns the catalog's items in file order.
func (c *Catalog) Items() []model.Item {
	items := make([]model.Item, len(c.Entries))
	for i, e := range c.Entries {
		items[i] = e.Item
	}
	return items
}

// Find returns the item with id, if any.
func (c *Catalog) Find(id string) (model.Item, bool) {
	for _, e := range c.Entries {
		if e.Item.ID == id {
			return e.Item, true
		}
	}
	return model.Item{}, false
}

// CheckCategories reports items whose category is not in allowed.
func (c *Catalog) CheckCategories(allowed []string) error {
	ok := make(map[string]bool, len(allowed))
	for _, cat := range allowed {
		ok[cat] = true
	}
	var errs []error
	for i, e := range c.Entries {
		if !ok[e.Item.Category] {
			errs = append(errs, fmt.Errorf("items[%d] %q: unknown category %q", i, e.Item.Name, e.Item.Category))
		}
	}
	return errors.Join(errs...)
}

// file is the on-disk shape shared by YAML and CUE catalogs.
type file struct {
	Items []record `yaml:"items" json:"items"`
}

// record mirrors model.Item with string timestamps; legacy data stores
// unset times as "".
type record struct {
	ID           string `yaml:"id,omitempty" json:"id,omitempty"`
	LegacyID     string `yaml:"legacy_id,omitempty" json:"legacy_id,omitempty"`
	Name         string `yaml:"name" json:"name"`
	Category     string `yaml:"category" json:"category"`
	Qty          int64  `yaml:"qty" json:"qty"`
	Threshold    int64  `yaml:"threshold" json:"threshold"`
	LastRefillAt string `yaml:"last_refill_at,omitempty" json:"last_refill_at,omitempty"`
	NextRefillAt string `yaml:"next_refill_at,omitempty" json:"next_refill_at,omitempty"`
	CreatedAt    string `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt    string `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
	Deleted      bool   `yaml:"deleted,omitempty" json:"deleted,omitempty"`
	Version      int64  `yaml:"version,omitempty" json:"version,omitempty"`
}

// Load reads a catalog, choosing the decoder by file extension.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var f *file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = decodeYAML(data)
	case ".cue":
		f, err = decodeCUE(path, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}

	return fromFile(f)
}

// Save writes c as YAML. Only .yaml and .yml paths are accepted.
func Save(path string, c *Catalog) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toFile(c)); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

func decodeYAML(data []byte) (*file, error) {
	var f file
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

func fromFile(f *file) (*Catalog, error) {
	c := &Catalog{Entries: make([]Entry, 0, len(f.Items))}
	for i, r := range f.Items {
		it, err := r.item()
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		c.Entries = append(c.Entries, Entry{Item: it, LegacyID: r.LegacyID})
	}
	return c, nil
}

func toFile(c *Catalog) file {
	f := file{Items: make([]record, 0, len(c.Entries))}
	for _, e := range c.Entries {
		it := e.Item
		f.Items = append(f.Items, record{
			ID:           it.ID,
			LegacyID:     e.LegacyID,
			Name:         it.Name,
			Category:     it.Category,
			Qty:          it.Qty,
			Threshold:    it.Threshold,
			LastRefillAt: formatTime(it.LastRefillAt),
			NextRefillAt: formatTime(it.NextRefillAt),
			CreatedAt:    formatTime(it.CreatedAt),
			UpdatedAt:    formatTime(it.UpdatedAt),
			Deleted:      it.Deleted,
			Version:      it.Version,
		})
	}
	return f
}

func (r record) item() (model.Item, error) {
	it := model.Item{
		ID:        r.ID,
		Name:      r.Name,
		Category:  r.Category,
		Qty:       r.Qty,
		Threshold: r.Threshold,
		Deleted:   r.Deleted,
		Version:   r.Version,
	}
	times := []struct {
		field string
		src   string
		dst   *time.Time
	}{
		{"last_refill_at", r.LastRefillAt, &it.LastRefillAt},
		{"next_refill_at", r.NextRefillAt, &it.NextRefillAt},
		{"created_at", r.CreatedAt, &it.CreatedAt},
		{"updated_at", r.UpdatedAt, &it.UpdatedAt},
	}
	for _, tm := range times {
		t, err := parseTime(tm.src)
		if err != nil {
			return model.Item{}, fmt.Errorf("%s: %w", tm.field, err)
		}
		*tm.dst = t
	}
	return it, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
