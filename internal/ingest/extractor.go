package ingest

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractGrant pulls a RawGrant out of a detail page using the source's
// selectors. Extraction is best-effort: a missing selector simply leaves
// the field empty for the normalizer to skip.
func ExtractGrant(doc *goquery.Document, pageURL string, source SourceConfig, sel DetailSelectorConfig) RawGrant {
	raw := RawGrant{
		URL:          CanonicalizeURL(pageURL),
		WebsiteURL:   source.BaseURL,
		Source:       source.Name,
		SourceFamily: source.Family,
		Promoter:     source.Name,
	}

	raw.Title = selectorText(doc, sel.Title)
	if raw.Title == "" {
		raw.Title = selectorText(doc, "h1")
	}
	if raw.Title == "" {
		raw.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if p := selectorText(doc, sel.Promoter); p != "" {
		raw.Promoter = p
	}

	raw.Description = selectorParagraphs(doc, sel.Description)
	raw.Eligibility = selectorText(doc, sel.Eligibility)
	raw.Sector = selectorText(doc, sel.Sector)
	raw.EligibleExpenses = selectorText(doc, sel.EligibleExpenses)
	raw.TotalFunding = selectorText(doc, sel.TotalFunding)
	raw.MaxRequest = selectorText(doc, sel.MaxRequest)
	raw.MinRequest = selectorText(doc, sel.MinRequest)
	raw.GrantPercentage = selectorText(doc, sel.Percentage)
	raw.OpeningDate = selectorText(doc, sel.OpeningDate)
	raw.ClosingDate = selectorText(doc, sel.ClosingDate)
	raw.Type = selectorText(doc, sel.Type)

	raw.Attachments = selectorLinks(doc, sel.Attachments, pageURL)
	raw.FormAttachments = selectorLinks(doc, sel.Forms, pageURL)

	return raw
}

func selectorText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return normalizeSpace(doc.Find(selector).First().Text())
}

// selectorParagraphs extracts text keeping paragraph boundaries as newlines,
// so downstream short-description derivation sees real paragraphs.
func selectorParagraphs(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	container := doc.Find(selector).First()
	if container.Length() == 0 {
		return ""
	}

	var parts []string
	container.Find("p, li, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if t := normalizeSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return normalizeSpace(container.Text())
	}
	return strings.Join(parts, "\n")
}

func selectorLinks(doc *goquery.Document, selector, pageURL string) []RawAttachment {
	if selector == "" {
		return nil
	}

	base, _ := url.Parse(pageURL)
	var out []RawAttachment
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if base != nil {
			if rel, err := url.Parse(href); err == nil {
				href = base.ResolveReference(rel).String()
			}
		}
		name := normalizeSpace(s.Text())
		if name == "" {
			name = strings.TrimSpace(s.AttrOr("title", ""))
		}
		out = append(out, RawAttachment{Name: name, URL: href})
	})
	return out
}

// CanonicalizeURL lowercases the host and strips fragments and tracking
// parameters so the same bando page always hashes to the same record id.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(k, "utm_") {
			q.Del(k)
		}
	}
	for _, p := range []string{"fbclid", "gclid", "mc_cid", "mc_eid", "ref", "session"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
