package pass

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v3"
)

// CatalogFile is the YAML form of a set of pass kinds.
//
//	name: standard
//	conversions:
//	  - {from: illumination, to: color}
//	passes:
//	  - kind: ToneMapper
//	    inputs:
//	      - {name: src, resource: color}
//	    outputs:
//	      - {name: dst, resource: color, format: rgba8unorm}
type CatalogFile struct {
	Name        string          `yaml:"name"`
	Conversions []ConversionDef `yaml:"conversions,omitempty"`
	Passes      []PassDef       `yaml:"passes"`
}

// ConversionDef declares a directed resource-kind compatibility.
type ConversionDef struct {
	From ResourceKind `yaml:"from"`
	To   ResourceKind `yaml:"to"`
}

// PassDef describes one pass kind in a catalog file.
type PassDef struct {
	Kind        string       `yaml:"kind"`
	Description string       `yaml:"description,omitempty"`
	ScratchOnly bool         `yaml:"scratch_only,omitempty"`
	Inputs      []PortDef    `yaml:"inputs,omitempty"`
	Outputs     []PortDef    `yaml:"outputs,omitempty"`
	Options     []OptionSpec `yaml:"options,omitempty"`
}

// PortDef describes one port in a catalog file. Inputs are required unless
// marked optional.
type PortDef struct {
	Name        string       `yaml:"name"`
	Resource    ResourceKind `yaml:"resource"`
	Optional    bool         `yaml:"optional,omitempty"`
	Format      string       `yaml:"format,omitempty"`
	Description string       `yaml:"description,omitempty"`
}

// Descriptor converts the definition into a Descriptor.
func (d PassDef) Descriptor() (Descriptor, error) {
	desc := Descriptor{
		Kind:        d.Kind,
		Description: d.Description,
		Options:     d.Options,
		ScratchOnly: d.ScratchOnly,
	}
	for _, p := range d.Inputs {
		pd, err := p.descriptor(d.Kind, Input)
		if err != nil {
			return Descriptor{}, err
		}
		pd.Required = !p.Optional
		desc.Inputs = append(desc.Inputs, pd)
	}
	for _, p := range d.Outputs {
		pd, err := p.descriptor(d.Kind, Output)
		if err != nil {
			return Descriptor{}, err
		}
		desc.Outputs = append(desc.Outputs, pd)
	}
	return desc, nil
}

func (p PortDef) descriptor(kind string, dir Direction) (PortDescriptor, error) {
	format, err := ParseTextureFormat(p.Format)
	if err != nil {
		return PortDescriptor{}, fmt.Errorf("pass: %s.%s: %w", kind, p.Name, err)
	}
	return PortDescriptor{
		Name:        p.Name,
		Direction:   dir,
		Kind:        p.Resource,
		Format:      format,
		Description: p.Description,
	}, nil
}

// CatalogLoader loads catalog files by name.
type CatalogLoader interface {
	Load(name string) (*CatalogFile, error)
}

// FileCatalogLoader loads catalogs from YAML files on disk.
type FileCatalogLoader struct {
	dirs []string
}

// NewFileCatalogLoader creates a loader that searches the given directories for catalog YAML files.
func NewFileCatalogLoader(dirs ...string) *FileCatalogLoader {
	return &FileCatalogLoader{dirs: dirs}
}

// Load searches for {name}.yaml and {name}.yml in each directory and one level
// of subdirectories.
func (l *FileCatalogLoader) Load(name string) (*CatalogFile, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if f, err := loadCatalogFile(path); err == nil {
				return f, nil
			}

			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			for _, match := range matches {
				if f, err := loadCatalogFile(match); err == nil {
					return f, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("pass: catalog %q not found in %v", name, l.dirs)
}

// LoadAll loads every catalog file directly inside the configured directories,
// in lexical order per directory. A file that fails to parse fails the load.
func (l *FileCatalogLoader) LoadAll() ([]*CatalogFile, error) {
	var files []*CatalogFile
	for _, dir := range l.dirs {
		var paths []string
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, fmt.Errorf("pass: listing %s: %w", dir, err)
			}
			paths = append(paths, matches...)
		}
		sort.Strings(paths)
		for _, path := range paths {
			f, err := loadCatalogFile(path)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func loadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f CatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("pass: parsing %s: %w", path, err)
	}
	return &f, nil
}

// LoadCatalog loads a catalog from explicit file paths.
// It tries each path until one succeeds.
func LoadCatalog(name string, paths ...string) (*CatalogFile, error) {
	for _, path := range paths {
		f, err := loadCatalogFile(path)
		if err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("pass: catalog %q not found in provided paths", name)
}

// LoadCatalogFile loads exactly one catalog file, returning read and parse errors.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	return loadCatalogFile(path)
}
