package ingest

import (
	"context"
	"io"
	"time"
)

// RawGrant is the untrusted, unnormalized output of a scrape. Every value
// field holds free text exactly as found on the page; the normalizer turns
// it into a typed models.Grant.
type RawGrant struct {
	Title            string
	Promoter         string
	Description      string
	Eligibility      string
	Sector           string
	AtecoCode        string
	EligibleExpenses string
	TotalFunding     string
	MaxRequest       string
	MinRequest       string
	GrantPercentage  string
	OpeningDate      string
	ClosingDate      string
	URL              string
	WebsiteURL       string
	Type             string
	Source           string
	SourceFamily     string

	// Attachments holds document links found in the page body;
	// FormAttachments holds links from a dedicated modulistica section.
	// Both run through the classifier at normalization time.
	Attachments     []RawAttachment
	FormAttachments []RawAttachment
}

// RawAttachment is an unclassified document reference.
type RawAttachment struct {
	Name string
	URL  string
}

// AttachmentCategory is the bucket a document lands in.
type AttachmentCategory string

const (
	// CategoryInformative covers guides, decrees, FAQs.
	CategoryInformative AttachmentCategory = "informativo"
	// CategoryCompilative covers forms the applicant fills in.
	CategoryCompilative AttachmentCategory = "compilativo"
)

// ClassifiedAttachment is a document reference with its resolved category.
type ClassifiedAttachment struct {
	Name     string
	URL      string
	Category AttachmentCategory
}

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}
