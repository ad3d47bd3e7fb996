package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all scraped sources, grouped into
// the four families (regional, chamber, national, eu).
type Registry struct {
	Families map[string]FamilyConfig `yaml:"families"`
	Sources  []SourceConfig          `yaml:"sources"`
}

// FamilyConfig carries the per-family defaults: the compilative keyword
// vocabulary and the fallback selectors shared by portals built on the
// same CMS.
type FamilyConfig struct {
	CompilativeKeywords []string       `yaml:"compilative_keywords"`
	Selectors           SelectorConfig `yaml:"selectors,omitempty"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 30
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Default: 3
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 1.0
	UserAgent      string  `yaml:"user_agent,omitempty"`
}

// SourceConfig defines a single portal to scrape.
type SourceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Family   string `yaml:"family"` // "regional", "chamber", "national", "eu"
	BaseURL  string `yaml:"base_url"`
	Active   bool   `yaml:"active"`
	MaxPages int    `yaml:"max_pages,omitempty"`

	Fetch     FetchConfig    `yaml:"fetch,omitempty"`
	Selectors SelectorConfig `yaml:"selectors,omitempty"`
}

// SelectorConfig drives listing crawl and detail extraction.
type SelectorConfig struct {
	List   ListSelectorConfig   `yaml:"list,omitempty"`
	Detail DetailSelectorConfig `yaml:"detail,omitempty"`
}

type ListSelectorConfig struct {
	Container string `yaml:"container,omitempty"` // wrapper of one listing entry
	Link      string `yaml:"link,omitempty"`
	LinkAttr  string `yaml:"link_attr,omitempty"` // default: href
	NextPage  string `yaml:"next_page,omitempty"`
}

type DetailSelectorConfig struct {
	Title            string `yaml:"title,omitempty"`
	Promoter         string `yaml:"promoter,omitempty"`
	Description      string `yaml:"description,omitempty"`
	Eligibility      string `yaml:"eligibility,omitempty"`
	Sector           string `yaml:"sector,omitempty"`
	EligibleExpenses string `yaml:"eligible_expenses,omitempty"`
	TotalFunding     string `yaml:"total_funding,omitempty"`
	MaxRequest       string `yaml:"max_request,omitempty"`
	MinRequest       string `yaml:"min_request,omitempty"`
	Percentage       string `yaml:"percentage,omitempty"`
	OpeningDate      string `yaml:"opening_date,omitempty"`
	ClosingDate      string `yaml:"closing_date,omitempty"`
	Type             string `yaml:"type,omitempty"`
	Attachments      string `yaml:"attachments,omitempty"` // anchors in the document section
	Forms            string `yaml:"forms,omitempty"`       // anchors in the modulistica section
}

// LoadRegistry reads the source configuration. A non-empty path loads from
// the filesystem, for local experiments; otherwise the embedded
// sources.yaml is used.
func LoadRegistry(path string) (*Registry, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sources config %s: %w", path, err)
		}
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
		if err != nil {
			return nil, err
		}
	}

	// Expand environment variables within the YAML content (e.g. ${UA})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	for _, s := range reg.Sources {
		if _, ok := reg.Families[s.Family]; !ok {
			return nil, fmt.Errorf("source %q references unknown family %q", s.ID, s.Family)
		}
	}

	return &reg, nil
}

// ActiveSources returns the sources enabled for ingestion, in file order.
// File order is priority order: regional portals first, EU last.
func (r *Registry) ActiveSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range r.Sources {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// SourceByID finds a configured source, active or not.
func (r *Registry) SourceByID(id string) (SourceConfig, bool) {
	for _, s := range r.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// KeywordsFor returns the compilative keyword set of a family.
func (r *Registry) KeywordsFor(family string) []string {
	return r.Families[family].CompilativeKeywords
}

// SelectorsFor merges a source's selectors over its family defaults.
func (r *Registry) SelectorsFor(s SourceConfig) SelectorConfig {
	base := r.Families[s.Family].Selectors
	mergeList(&base.List, s.Selectors.List)
	mergeDetail(&base.Detail, s.Selectors.Detail)
	return base
}

func mergeList(dst *ListSelectorConfig, src ListSelectorConfig) {
	override(&dst.Container, src.Container)
	override(&dst.Link, src.Link)
	override(&dst.LinkAttr, src.LinkAttr)
	override(&dst.NextPage, src.NextPage)
}

func mergeDetail(dst *DetailSelectorConfig, src DetailSelectorConfig) {
	override(&dst.Title, src.Title)
	override(&dst.Promoter, src.Promoter)
	override(&dst.Description, src.Description)
	override(&dst.Eligibility, src.Eligibility)
	override(&dst.Sector, src.Sector)
	override(&dst.EligibleExpenses, src.EligibleExpenses)
	override(&dst.TotalFunding, src.TotalFunding)
	override(&dst.MaxRequest, src.MaxRequest)
	override(&dst.MinRequest, src.MinRequest)
	override(&dst.Percentage, src.Percentage)
	override(&dst.OpeningDate, src.OpeningDate)
	override(&dst.ClosingDate, src.ClosingDate)
	override(&dst.Type, src.Type)
	override(&dst.Attachments, src.Attachments)
	override(&dst.Forms, src.Forms)
}

func override(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
