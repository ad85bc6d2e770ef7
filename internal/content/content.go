// Package content serves the static site sections and the search catalog.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed catalog.yaml
var bundled []byte

var ErrUnknownSection = errors.New("content: unknown section")

type Link struct {
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
}

type NamedLink struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

type Card struct {
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type Organization struct {
	Name      string `yaml:"name" json:"name"`
	ShortName string `yaml:"short_name" json:"shortName"`
	Region    string `yaml:"region" json:"region"`
}

type Hero struct {
	Headline        string `yaml:"headline" json:"headline"`
	Summary         string `yaml:"summary" json:"summary"`
	PrimaryAction   Link   `yaml:"primary_action" json:"primaryAction"`
	SecondaryAction Link   `yaml:"secondary_action" json:"secondaryAction"`
}

type About struct {
	Mission      string `yaml:"mission" json:"mission"`
	Vision       string `yaml:"vision" json:"vision"`
	Achievements []Card `yaml:"achievements" json:"achievements"`
}

type Resources struct {
	Categories    []Card `yaml:"categories" json:"categories"`
	ExternalLinks []Card `yaml:"external_links" json:"externalLinks"`
}

type BoardRole struct {
	Role             string `yaml:"role" json:"role"`
	Responsibilities string `yaml:"responsibilities" json:"responsibilities"`
}

type Meeting struct {
	Type      string `yaml:"type" json:"type"`
	Frequency string `yaml:"frequency" json:"frequency"`
	Notice    string `yaml:"notice" json:"notice"`
	Quorum    string `yaml:"quorum" json:"quorum"`
}

type Governance struct {
	Board             []BoardRole `yaml:"board" json:"board"`
	Meetings          []Meeting   `yaml:"meetings" json:"meetings"`
	FinancialControls []string    `yaml:"financial_controls" json:"financialControls"`
}

type Helpline struct {
	Label string `yaml:"label" json:"label"`
	Phone string `yaml:"phone" json:"phone"`
}

type Footer struct {
	Email string      `yaml:"email" json:"email"`
	Phone string      `yaml:"phone" json:"phone"`
	Links []NamedLink `yaml:"links" json:"links"`
}

// DonationImpact pairs a suggested amount with what it pays for.
type DonationImpact struct {
	Amount int    `yaml:"amount" json:"amount"`
	Impact string `yaml:"impact" json:"impact"`
}

// SearchEntry is one navigable item in the site search.
type SearchEntry struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Path        string `yaml:"path" json:"path"`
	Type        string `yaml:"type" json:"type"`
}

type Catalog struct {
	Organization    Organization     `yaml:"organization" json:"organization"`
	Hero            Hero             `yaml:"hero" json:"hero"`
	About           About            `yaml:"about" json:"about"`
	Programs        []Card           `yaml:"programs" json:"programs"`
	Resources       Resources        `yaml:"resources" json:"resources"`
	Governance      Governance       `yaml:"governance" json:"governance"`
	Helpline        Helpline         `yaml:"helpline" json:"helpline"`
	Footer          Footer           `yaml:"footer" json:"footer"`
	DonationAmounts []DonationImpact `yaml:"donation_amounts" json:"donationAmounts"`
	Routes          []string         `yaml:"routes" json:"routes"`
	SearchEntries   []SearchEntry    `yaml:"search" json:"search"`
}

// Load reads the catalog from path, or the bundled copy when path is empty.
func Load(path string) (*Catalog, error) {
	raw := bundled
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("content: read %s: %w", path, err)
		}
		raw = data
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}
	for i, entry := range c.SearchEntries {
		if entry.ID == "" || entry.Title == "" || entry.Path == "" {
			return nil, fmt.Errorf("content: search entry %d needs id, title and path", i)
		}
		switch entry.Type {
		case "page", "program", "resource":
		default:
			return nil, fmt.Errorf("content: search entry %s has unknown type %q", entry.ID, entry.Type)
		}
	}
	return &c, nil
}

// Section returns one named part of the catalog.
func (c *Catalog) Section(name string) (interface{}, error) {
	switch name {
	case "organization":
		return c.Organization, nil
	case "hero":
		return c.Hero, nil
	case "about":
		return c.About, nil
	case "programs":
		return c.Programs, nil
	case "resources":
		return c.Resources, nil
	case "governance":
		return c.Governance, nil
	case "helpline":
		return c.Helpline, nil
	case "footer":
		return c.Footer, nil
	case "donation-amounts":
		return c.DonationAmounts, nil
	case "routes":
		return c.Routes, nil
	}
	return nil, ErrUnknownSection
}

// Search matches term case-insensitively against titles and descriptions.
// A blank term returns every entry.
func (c *Catalog) Search(term string) []SearchEntry {
	needle := strings.ToLower(strings.TrimSpace(term))
	results := make([]SearchEntry, 0, len(c.SearchEntries))
	for _, entry := range c.SearchEntries {
		if needle == "" ||
			strings.Contains(strings.ToLower(entry.Title), needle) ||
			strings.Contains(strings.ToLower(entry.Description), needle) {
			results = append(results, entry)
		}
	}
	return results
}
