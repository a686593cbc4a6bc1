package template

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"nodebridge/internal/domain/dialog360"

	"github.com/tidwall/gjson"
)

var _ dialog360.TemplateStore = (*Catalog)(nil)

// Catalog serves WhatsApp templates from *.json files in a directory.
// Each file holds either a gateway listing ({"waba_templates": [...]}) or a
// single template object. Files are read on every call so edits apply at once.
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog over dir. The directory must exist.
func NewCatalog(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening template catalog %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template catalog %s is not a directory", dir)
	}
	return &Catalog{dir: dir}, nil
}

// ListTemplates implements dialog360.TemplateStore. Templates are returned in
// file name order, and in listing order within a file. A single-template file
// that cannot be decoded is skipped, like a bad entry in a listing.
func (c *Catalog) ListTemplates(ctx context.Context) ([]dialog360.Template, error) {
	files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing template catalog: %w", err)
	}
	sort.Strings(files)

	var templates []dialog360.Template
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		if gjson.GetBytes(data, "waba_templates").Exists() {
			listed, err := dialog360.DecodeTemplates(data)
			if err != nil {
				return nil, fmt.Errorf("decoding %s: %w", file, err)
			}
			templates = append(templates, listed...)
			continue
		}

		tmpl, err := dialog360.DecodeTemplate(data)
		if err != nil {
			slog.Warn("skipping template that cannot be compiled", "file", file, "error", err)
			continue
		}
		templates = append(templates, tmpl)
	}

	return templates, nil
}
