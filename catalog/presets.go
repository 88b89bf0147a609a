package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/costela/feedmix"
)

//go:embed presets/*.toml
var presetsFS embed.FS

// Presets lists the names of the embedded catalogs.
func Presets() []string {
	entries, err := fs.ReadDir(presetsFS, "presets")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
		}
	}
	sort.Strings(names)
	return names
}

// PresetDocument returns the embedded catalog called name.
func PresetDocument(name string) (*Document, error) {
	data, err := presetsFS.ReadFile(path.Join("presets", name+".toml"))
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, ErrUnknownRef)
	}
	return Decode(data, TOML)
}

// Preset builds a fresh library from the embedded catalog called name.
func Preset(name string, opts ...feedmix.Option) (*feedmix.FormulaLibrary, error) {
	doc, err := PresetDocument(name)
	if err != nil {
		return nil, err
	}
	library, err := Build(doc, opts...)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return library, nil
}
