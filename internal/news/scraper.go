package news

import (
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"capital-trading-bot/internal/logger"
)

// Headline is a scraped article title with its source.
type Headline struct {
	Source string
	Title  string
	URL    string
}

// Source defines a news source configuration.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // contains {symbol}
	Selectors  HeadlineSelectors
	RateLimit  time.Duration
}

// HeadlineSelectors are the CSS selectors for extracting headlines.
type HeadlineSelectors struct {
	Container string
	Title     string
	URL       string
}

// Scraper collects market headlines from multiple sources.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{sources: defaultSources(), timeout: timeout}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:       "FXStreet",
			BaseURL:    "https://www.fxstreet.com",
			SearchPath: "/search?q={symbol}",
			Selectors: HeadlineSelectors{
				Container: "article",
				Title:     "h4 a, h3 a",
				URL:       "h4 a, h3 a",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "Investing",
			BaseURL:    "https://www.investing.com",
			SearchPath: "/search/?q={symbol}&tab=news",
			Selectors: HeadlineSelectors{
				Container: "div.articleItem",
				Title:     "a.title",
				URL:       "a.title",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Scrape fetches up to maxHeadlines headlines mentioning the symbol.
func (s *Scraper) Scrape(ctx context.Context, symbol string, maxHeadlines int) ([]Headline, error) {
	perSource := maxHeadlines / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var all []Headline
	for _, src := range s.sources {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}
		headlines, err := s.scrapeSource(ctx, src, symbol, perSource)
		if err != nil {
			logger.Warn(ctx, "Headline source failed", "source", src.Name, "symbol", symbol, "error", err)
			continue
		}
		all = append(all, headlines...)
		if len(all) >= maxHeadlines {
			return all[:maxHeadlines], nil
		}
	}
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source, symbol string, limit int) ([]Headline, error) {
	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(s.timeout)
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: src.RateLimit})

	var headlines []Headline
	c.OnHTML(src.Selectors.Container, func(e *colly.HTMLElement) {
		if len(headlines) >= limit {
			return
		}
		title := strings.TrimSpace(e.ChildText(src.Selectors.Title))
		if title == "" {
			return
		}
		headlines = append(headlines, Headline{
			Source: src.Name,
			Title:  title,
			URL:    e.Request.AbsoluteURL(e.ChildAttr(src.Selectors.URL, "href")),
		})
	})

	url := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", symbol)
	if err := c.Visit(url); err != nil {
		return nil, err
	}
	c.Wait()
	return headlines, nil
}
