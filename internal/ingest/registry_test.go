package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	for _, family := range []string{"regional", "chamber", "national", "eu"} {
		if len(reg.KeywordsFor(family)) == 0 {
			t.Errorf("family %q has no compilative keywords", family)
		}
	}

	active := reg.ActiveSources()
	if len(active) == 0 {
		t.Fatal("no active sources")
	}
	for _, s := range active {
		if s.ID == "" || s.BaseURL == "" {
			t.Errorf("source %+v missing id or base_url", s)
		}
	}
}

func TestLoadRegistryFromFile(t *testing.T) {
	yaml := `
families:
  regional:
    compilative_keywords: [modulo]
sources:
  - id: test-portal
    name: Test Portal
    family: regional
    base_url: https://bandi.test.example.it
    active: true
`
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry(%q): %v", path, err)
	}
	if len(reg.Sources) != 1 || reg.Sources[0].ID != "test-portal" {
		t.Errorf("file config not honored, got sources %+v", reg.Sources)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestSelectorsForMergesFamilyDefaults(t *testing.T) {
	reg := &Registry{
		Families: map[string]FamilyConfig{
			"regional": {
				Selectors: SelectorConfig{
					List:   ListSelectorConfig{Container: ".row", Link: "a"},
					Detail: DetailSelectorConfig{Title: "h1", ClosingDate: ".scadenza"},
				},
			},
		},
	}
	src := SourceConfig{
		Family: "regional",
		Selectors: SelectorConfig{
			Detail: DetailSelectorConfig{ClosingDate: ".deadline-custom"},
		},
	}

	got := reg.SelectorsFor(src)
	if got.List.Container != ".row" || got.List.Link != "a" {
		t.Errorf("family list selectors lost: %+v", got.List)
	}
	if got.Detail.Title != "h1" {
		t.Errorf("family detail selector lost: %+v", got.Detail)
	}
	if got.Detail.ClosingDate != ".deadline-custom" {
		t.Errorf("source override lost: %+v", got.Detail)
	}
}
