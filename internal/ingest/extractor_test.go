package ingest

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const detailPageHTML = `
<html><head><title>Regione Lombardia</title></head><body>
<h1> Bando Innovazione  PMI 2026 </h1>
<div class="descrizione">
  <p>Contributi a fondo perduto per le PMI lombarde.</p>
  <p>Le domande vanno presentate tramite la piattaforma regionale.</p>
</div>
<div class="beneficiari">PMI con sede operativa in Lombardia</div>
<span class="dotazione">Dotazione: € 10.000.000</span>
<span class="scadenza">Scadenza: 30 giugno 2026</span>
<div class="allegati">
  <a href="/docs/bando.pdf">Bando integrale</a>
  <a href="#top">torna su</a>
  <a href="https://cdn.example.it/faq.pdf">FAQ</a>
</div>
<div class="modulistica">
  <a href="/docs/modulo.docx">Modulo di domanda</a>
</div>
</body></html>`

func detailDoc(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailPageHTML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExtractGrant(t *testing.T) {
	source := SourceConfig{
		ID:      "regione-lombardia",
		Name:    "Lombardia",
		Family:  "regional",
		BaseURL: "https://www.bandi.regione.lombardia.it/",
	}
	sel := DetailSelectorConfig{
		Title:        "h1",
		Description:  ".descrizione",
		Eligibility:  ".beneficiari",
		TotalFunding: ".dotazione",
		ClosingDate:  ".scadenza",
		Attachments:  ".allegati a",
		Forms:        ".modulistica a",
	}

	raw := ExtractGrant(detailDoc(t), "https://www.bandi.regione.lombardia.it/bando/123?utm_source=x", source, sel)

	if raw.Title != "Bando Innovazione PMI 2026" {
		t.Errorf("title: %q", raw.Title)
	}
	if raw.URL != "https://www.bandi.regione.lombardia.it/bando/123" {
		t.Errorf("url not canonicalized: %q", raw.URL)
	}
	wantDesc := "Contributi a fondo perduto per le PMI lombarde.\nLe domande vanno presentate tramite la piattaforma regionale."
	if raw.Description != wantDesc {
		t.Errorf("description: %q", raw.Description)
	}
	if raw.Eligibility != "PMI con sede operativa in Lombardia" {
		t.Errorf("eligibility: %q", raw.Eligibility)
	}
	if raw.TotalFunding != "Dotazione: € 10.000.000" {
		t.Errorf("total funding: %q", raw.TotalFunding)
	}
	if raw.ClosingDate != "Scadenza: 30 giugno 2026" {
		t.Errorf("closing date: %q", raw.ClosingDate)
	}
	if raw.SourceFamily != "regional" || raw.Promoter != "Lombardia" {
		t.Errorf("source metadata: %+v", raw)
	}

	if len(raw.Attachments) != 2 {
		t.Fatalf("attachments: %+v", raw.Attachments)
	}
	if raw.Attachments[0].URL != "https://www.bandi.regione.lombardia.it/docs/bando.pdf" {
		t.Errorf("relative link not resolved: %q", raw.Attachments[0].URL)
	}
	if len(raw.FormAttachments) != 1 || raw.FormAttachments[0].Name != "Modulo di domanda" {
		t.Errorf("form attachments: %+v", raw.FormAttachments)
	}
}

func TestExtractGrantMissingSelectors(t *testing.T) {
	source := SourceConfig{Name: "Lombardia", Family: "regional"}

	raw := ExtractGrant(detailDoc(t), "https://www.bandi.regione.lombardia.it/bando/123", source, DetailSelectorConfig{})

	// h1 fallback still finds the title.
	if raw.Title != "Bando Innovazione PMI 2026" {
		t.Errorf("title fallback: %q", raw.Title)
	}
	if raw.Description != "" || len(raw.Attachments) != 0 {
		t.Errorf("expected empty fields without selectors: %+v", raw)
	}
}

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://EXAMPLE.it/bando?utm_source=nl&id=7", "https://example.it/bando?id=7"},
		{"https://example.it/bando#sezione", "https://example.it/bando"},
		{"https://example.it/bando?fbclid=abc", "https://example.it/bando"},
	}
	for _, tt := range tests {
		if got := CanonicalizeURL(tt.in); got != tt.want {
			t.Errorf("CanonicalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
