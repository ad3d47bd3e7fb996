package ingest

import "strings"

// AttachmentClassifier sorts grant documents into informative and
// compilative buckets. Keywords come from the source registry so each
// source family carries its own vocabulary.
type AttachmentClassifier struct {
	keywords []string
}

// NewAttachmentClassifier builds a classifier from a compilative keyword
// list. Keywords are matched case-insensitively as substrings of the
// attachment name and of its URL.
func NewAttachmentClassifier(compilativeKeywords []string) *AttachmentClassifier {
	kws := make([]string, 0, len(compilativeKeywords))
	for _, k := range compilativeKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kws = append(kws, k)
		}
	}
	return &AttachmentClassifier{keywords: kws}
}

// Classify returns the category for an attachment. Everything is
// informative unless a compilative keyword hits the display name or the
// URL. Portals often label a form link "Scarica il documento" while the
// file name in the URL carries the real vocabulary, so both are checked.
func (c *AttachmentClassifier) Classify(name, url string) AttachmentCategory {
	lowerName := strings.ToLower(name)
	lowerURL := strings.ToLower(url)
	for _, kw := range c.keywords {
		if strings.Contains(lowerName, kw) || strings.Contains(lowerURL, kw) {
			return CategoryCompilative
		}
	}
	return CategoryInformative
}

// ClassifyAll resolves a list of raw attachments, skipping entries without
// a usable URL.
func (c *AttachmentClassifier) ClassifyAll(raws []RawAttachment) []ClassifiedAttachment {
	out := make([]ClassifiedAttachment, 0, len(raws))
	for _, ra := range raws {
		if strings.TrimSpace(ra.URL) == "" {
			continue
		}
		url := strings.TrimSpace(ra.URL)
		name := firstNonEmpty(ra.Name, url)
		out = append(out, ClassifiedAttachment{
			Name:     normalizeSpace(name),
			URL:      url,
			Category: c.Classify(ra.Name, url),
		})
	}
	return out
}
