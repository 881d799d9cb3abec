// Package formats renders a fetched classification tree into shareable
// documents. Formats register themselves by name; the CLI export command
// looks them up from the registry.
package formats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/modshelf/modshelf/taxonomy"
)

// ExportFormat defines how a tree and its items are rendered.
type ExportFormat struct {
	// Name is the format identifier (alphanumeric, dashes, underscores, lowercase)
	Name string

	// Extension is the file extension including the dot (e.g., ".txt", ".md")
	Extension string

	// Render produces the document text for a fetched forest and item set.
	Render func(forest taxonomy.Forest, items []taxonomy.Item) string
}

// registry holds all available export formats
var registry = make(map[string]*ExportFormat)

// Register adds a new export format to the registry
func Register(format *ExportFormat) error {
	if !isValidFormatName(format.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", format.Name)
	}

	if !strings.HasPrefix(format.Extension, ".") {
		format.Extension = "." + format.Extension
	}

	if _, exists := registry[format.Name]; exists {
		return fmt.Errorf("format %q already registered", format.Name)
	}

	registry[format.Name] = format
	return nil
}

// Get returns an export format by name
func Get(name string) (*ExportFormat, error) {
	format, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown format %q", name)
	}
	return format, nil
}

// List returns all registered format names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isValidFormatName checks if a format name is valid
func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
