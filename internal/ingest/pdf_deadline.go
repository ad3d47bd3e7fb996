package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	rpdf "rsc.io/pdf"
)

func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder bytes.Buffer
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// dateCandidatesFromText collects every Italian date token in the text,
// deduplicated and sorted ascending.
func dateCandidatesFromText(text string) []time.Time {
	seen := map[time.Time]bool{}
	var out []time.Time

	collect := func(tokens []string) {
		for _, token := range tokens {
			if t, ok := ParseItalianDate(token); ok && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}

	collect(dateNumericDMY.FindAllString(text, -1))
	collect(dateItalianDMY.FindAllString(text, -1))
	collect(dateNumericYMD.FindAllString(text, -1))

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// pickDeadline chooses the most plausible closing date from the candidates:
// the earliest one still in the future, since a call's deadline is the next
// date the document is counting down to.
func pickDeadline(candidates []time.Time, today time.Time) *time.Time {
	today = truncateToDay(today)
	for _, c := range candidates {
		if c.After(today) {
			d := c
			return &d
		}
	}
	return nil
}

// ExtractDeadlineFromPDF downloads an informative attachment and scans it
// for a closing date. Used as a fallback when the detail page carries no
// parseable scadenza.
func ExtractDeadlineFromPDF(ctx context.Context, fetcher Fetcher, pdfURL string, today time.Time) (*time.Time, error) {
	doc, err := fetcher.Fetch(ctx, pdfURL)
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()

	content, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("pdf read failed: %w", err)
	}

	text, err := extractPDFText(content)
	if err != nil {
		return nil, fmt.Errorf("pdf text extraction failed: %w", err)
	}

	return pickDeadline(dateCandidatesFromText(text), today), nil
}
