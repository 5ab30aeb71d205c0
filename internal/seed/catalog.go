package seed

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogPlan is one built-in learning plan.
type CatalogPlan struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	VideoURL    string `yaml:"video_url"`
}

type catalogFile struct {
	Plans []CatalogPlan `yaml:"plans"`
}

// LoadCatalog parses the embedded plan catalog.
func LoadCatalog() ([]CatalogPlan, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(data []byte) ([]CatalogPlan, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	seen := make(map[string]bool, len(file.Plans))
	for i, p := range file.Plans {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			return nil, fmt.Errorf("plan catalog entry %d has no title", i)
		}
		if seen[title] {
			return nil, fmt.Errorf("plan catalog lists %q twice", title)
		}
		seen[title] = true
		file.Plans[i].Title = title
	}
	return file.Plans, nil
}
