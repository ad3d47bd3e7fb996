package ingest

import "testing"

func TestClassify(t *testing.T) {
	c := NewAttachmentClassifier([]string{"modulo", "domanda", "application form", "dichiarazione"})

	tests := []struct {
		name string
		url  string
		want AttachmentCategory
	}{
		{"Bando integrale 2026", "https://example.it/bando.pdf", CategoryInformative},
		{"FAQ aggiornate", "https://example.it/faq.pdf", CategoryInformative},
		{"Modulo di domanda", "https://example.it/doc123.pdf", CategoryCompilative},
		{"MODULO ISCRIZIONE.pdf", "", CategoryCompilative},
		{"Application Form - Annex II", "", CategoryCompilative},
		{"Dichiarazione sostitutiva", "", CategoryCompilative},
		{"Decreto di approvazione", "https://example.it/decreto.pdf", CategoryInformative},
		// Generic link text, the file name in the URL decides.
		{"Scarica il documento", "https://example.it/docs/modulo_domanda.docx", CategoryCompilative},
		{"Scarica il documento", "https://example.it/docs/avviso_pubblico.pdf", CategoryInformative},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.name, tt.url); got != tt.want {
			t.Errorf("Classify(%q, %q) = %q, want %q", tt.name, tt.url, got, tt.want)
		}
	}
}

func TestClassifyEmptyKeywordSet(t *testing.T) {
	c := NewAttachmentClassifier(nil)
	if got := c.Classify("Modulo di domanda", "https://example.it/modulo.docx"); got != CategoryInformative {
		t.Errorf("got %q, want %q without keywords", got, CategoryInformative)
	}
}

func TestClassifyAll(t *testing.T) {
	c := NewAttachmentClassifier([]string{"modulo"})

	got := c.ClassifyAll([]RawAttachment{
		{Name: "Bando  integrale", URL: "https://example.it/bando.pdf"},
		{Name: "Modulo richiesta", URL: "https://example.it/allegato-12.docx"},
		{Name: "Allegato A", URL: "https://example.it/modulo_compilabile.docx"},
		{Name: "senza link", URL: ""},
		{Name: "", URL: "https://example.it/allegato.pdf"},
	})

	if len(got) != 4 {
		t.Fatalf("expected 4 attachments, got %d", len(got))
	}
	if got[0].Name != "Bando integrale" || got[0].Category != CategoryInformative {
		t.Errorf("unexpected first attachment: %+v", got[0])
	}
	if got[1].Category != CategoryCompilative {
		t.Errorf("expected compilative from name, got %+v", got[1])
	}
	if got[2].Category != CategoryCompilative {
		t.Errorf("expected compilative from url, got %+v", got[2])
	}
	if got[3].Name != "https://example.it/allegato.pdf" {
		t.Errorf("expected URL fallback name, got %q", got[3].Name)
	}
}
