package ingest

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// LinkCollector walks a source's listing pages with colly and returns the
// detail-page links, deduplicated and in discovery order. Detail pages are
// fetched separately so the rate-limited fetcher stays the single place
// that talks to portals for content.
type LinkCollector struct {
	UserAgent      string
	RequestTimeout time.Duration
	DomainDelay    time.Duration
	MaxRetries     int
}

func NewLinkCollector(cfg FetchConfig) *LinkCollector {
	c := &LinkCollector{
		UserAgent:      defaultUserAgent,
		RequestTimeout: 30 * time.Second,
		DomainDelay:    time.Second,
		MaxRetries:     3,
	}
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	if cfg.TimeoutSeconds > 0 {
		c.RequestTimeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RateLimitRPS > 0 {
		c.DomainDelay = time.Duration(float64(time.Second) / cfg.RateLimitRPS)
	}
	if cfg.MaxRetries > 0 {
		c.MaxRetries = cfg.MaxRetries
	}
	return c
}

// Collect visits the source's base URL and follows pagination up to
// maxPages, extracting the link selector inside every list container.
func (lc *LinkCollector) Collect(source SourceConfig, selectors SelectorConfig, maxPages int) ([]string, error) {
	base, err := url.Parse(source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url for %s: %w", source.ID, err)
	}
	if maxPages <= 0 {
		maxPages = 1
	}

	c := colly.NewCollector(
		colly.UserAgent(lc.UserAgent),
		colly.AllowedDomains(base.Host),
		colly.DetectCharset(),
	)
	c.SetRequestTimeout(lc.RequestTimeout)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       lc.DomainDelay,
		RandomDelay: lc.DomainDelay / 2,
	})

	var (
		mu      sync.Mutex
		links   []string
		seen    = map[string]bool{}
		pages   = 0
		listSel = selectors.List
	)

	linkSel := listSel.Link
	if linkSel == "" {
		linkSel = "a"
	}
	linkAttr := listSel.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}

	container := listSel.Container
	if container == "" {
		container = "body"
	}

	c.OnHTML(container, func(e *colly.HTMLElement) {
		href := e.ChildAttr(linkSel, linkAttr)
		if href == "" && e.Name == "a" {
			href = e.Attr(linkAttr)
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		abs := e.Request.AbsoluteURL(href)
		if abs == "" {
			return
		}

		mu.Lock()
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
		mu.Unlock()
	})

	if listSel.NextPage != "" {
		c.OnHTML(listSel.NextPage, func(e *colly.HTMLElement) {
			mu.Lock()
			follow := pages < maxPages
			mu.Unlock()
			if !follow {
				return
			}
			if next := e.Request.AbsoluteURL(e.Attr("href")); next != "" {
				e.Request.Visit(next)
			}
		})
	}

	c.OnRequest(func(r *colly.Request) {
		mu.Lock()
		pages++
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		retries := 0
		if v := r.Request.Ctx.GetAny("retries"); v != nil {
			retries = v.(int)
		}
		if retries < lc.MaxRetries {
			r.Request.Ctx.Put("retries", retries+1)
			log.Printf("[collector] retry %d/%d for %s: %v", retries+1, lc.MaxRetries, r.Request.URL, err)
			time.Sleep(time.Duration(retries+1) * time.Second)
			r.Request.Retry()
		}
	})

	if err := c.Visit(source.BaseURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", source.BaseURL, err)
	}
	c.Wait()

	return links, nil
}
