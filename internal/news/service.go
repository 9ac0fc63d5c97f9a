package news

import (
	"context"
	"strings"
	"sync"
	"time"

	"capital-trading-bot/internal/logger"
)

// Sentiment is an aggregate headline score for a symbol in [-1, 1].
type Sentiment struct {
	Symbol    string  `json:"symbol"`
	Score     float64 `json:"score"`
	Headlines int     `json:"headlines"`
	Timestamp int64   `json:"timestamp"`
}

// ServiceConfig controls scraping volume and cache lifetime.
type ServiceConfig struct {
	MaxHeadlines  int
	CacheDuration time.Duration
	ScrapeTimeout time.Duration
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxHeadlines:  15,
		CacheDuration: time.Hour,
		ScrapeTimeout: 20 * time.Second,
	}
}

// Service scrapes headlines and scores them with a small lexicon. Scores are
// cached per symbol so a cycle never waits on a scrape it did recently.
type Service struct {
	cfg     ServiceConfig
	scraper *Scraper
	cache   *sentimentCache
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		cfg:     cfg,
		scraper: NewScraper(cfg.ScrapeTimeout),
		cache:   newSentimentCache(cfg.CacheDuration),
	}
}

// Sentiment returns the cached or freshly scraped score for a symbol.
func (s *Service) Sentiment(ctx context.Context, symbol string) (Sentiment, error) {
	if cached, found := s.cache.get(symbol); found {
		return cached, nil
	}

	headlines, err := s.scraper.Scrape(ctx, symbol, s.cfg.MaxHeadlines)
	if err != nil {
		return Sentiment{}, err
	}

	score := 0.0
	for _, h := range headlines {
		score += scoreHeadline(h.Title)
	}
	if len(headlines) > 0 {
		score /= float64(len(headlines))
	}

	sent := Sentiment{
		Symbol:    symbol,
		Score:     score,
		Headlines: len(headlines),
		Timestamp: time.Now().Unix(),
	}
	s.cache.set(symbol, sent)
	logger.Debug(ctx, "Headline sentiment computed", "symbol", symbol, "score", score, "headlines", len(headlines))
	return sent, nil
}

var (
	positiveWords = []string{"rally", "surge", "gain", "bullish", "beat", "upbeat", "strong", "soar", "record high", "optimism"}
	negativeWords = []string{"crash", "plunge", "loss", "bearish", "miss", "weak", "slump", "fear", "record low", "selloff", "recession"}
)

// scoreHeadline counts lexicon hits, clamped to [-1, 1].
func scoreHeadline(title string) float64 {
	t := strings.ToLower(title)
	score := 0.0
	for _, w := range positiveWords {
		if strings.Contains(t, w) {
			score += 0.5
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(t, w) {
			score -= 0.5
		}
	}
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

type cacheEntry struct {
	sentiment Sentiment
	expires   time.Time
}

type sentimentCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newSentimentCache(ttl time.Duration) *sentimentCache {
	return &sentimentCache{entries: make(map[string]cacheEntry), ttl: ttl}
}

func (c *sentimentCache) get(symbol string) (Sentiment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[symbol]
	if !ok || time.Now().After(e.expires) {
		return Sentiment{}, false
	}
	return e.sentiment, true
}

func (c *sentimentCache) set(symbol string, s Sentiment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[symbol] = cacheEntry{sentiment: s, expires: time.Now().Add(c.ttl)}
}
