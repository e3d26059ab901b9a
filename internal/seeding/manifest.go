// Package seeding loads a catalog manifest and applies it to a running site
// through the REST API.
package seeding

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrManifest marks an unreadable or invalid manifest.
var ErrManifest = errors.New("invalid manifest")

// Manifest is the YAML document read by the seed command.
//
//	categories:
//	  - mainCategory: Branding
//	    subCategories: [Logos, Business Cards]
//	items:
//	  - title: Acme logo
//	    mainCategory: Branding
//	    subCategory: Logos
//	    mediaType: image
//	    files: [media/acme.png]
type Manifest struct {
	Categories []CategorySpec `yaml:"categories"`
	Items      []ItemSpec     `yaml:"items"`

	// dir resolves relative file paths.
	dir string
}

// CategorySpec describes a category that must exist.
type CategorySpec struct {
	MainCategory  string   `yaml:"mainCategory"`
	SubCategories []string `yaml:"subCategories"`
}

// ItemSpec describes a portfolio item to upload.
type ItemSpec struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	MainCategory string   `yaml:"mainCategory"`
	SubCategory  string   `yaml:"subCategory"`
	MediaType    string   `yaml:"mediaType"`
	Files        []string `yaml:"files"`
}

// LoadManifest reads the manifest at path. Relative file paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes a manifest. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Path resolves a file entry of the manifest.
func (m *Manifest) Path(file string) string {
	if filepath.IsAbs(file) || m.dir == "" {
		return file
	}
	return filepath.Join(m.dir, file)
}

func (m *Manifest) validate() error {
	for i, c := range m.Categories {
		if strings.TrimSpace(c.MainCategory) == "" {
			return fmt.Errorf("%w: categories[%d]: mainCategory is required", ErrManifest, i)
		}
	}
	for i, it := range m.Items {
		switch {
		case strings.TrimSpace(it.Title) == "":
			return fmt.Errorf("%w: items[%d]: title is required", ErrManifest, i)
		case len(it.Files) == 0:
			return fmt.Errorf("%w: items[%d] %q: files are required", ErrManifest, i, it.Title)
		}
	}
	return nil
}
