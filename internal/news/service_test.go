package news

import (
	"testing"
	"time"
)

func TestSentimentCache(t *testing.T) {
	cache := newSentimentCache(50 * time.Millisecond)

	symbol := "EURUSD"
	sentiment := Sentiment{
		Symbol:    symbol,
		Score:     0.5,
		Headlines: 4,
		Timestamp: time.Now().Unix(),
	}

	cache.set(symbol, sentiment)

	retrieved, found := cache.get(symbol)
	if !found {
		t.Fatal("Expected to find cached sentiment")
	}
	if retrieved.Symbol != symbol {
		t.Errorf("Expected symbol %s, got %s", symbol, retrieved.Symbol)
	}
	if retrieved.Score != 0.5 {
		t.Errorf("Expected score 0.5, got %f", retrieved.Score)
	}

	time.Sleep(60 * time.Millisecond)
	if _, found = cache.get(symbol); found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestScoreHeadline(t *testing.T) {
	if s := scoreHeadline("Euro rallies to record high on upbeat data"); s <= 0 {
		t.Errorf("expected positive score, got %f", s)
	}
	if s := scoreHeadline("Dollar plunges as recession fear deepens"); s >= 0 {
		t.Errorf("expected negative score, got %f", s)
	}
	if s := scoreHeadline("Central bank leaves rates unchanged"); s != 0 {
		t.Errorf("expected neutral score, got %f", s)
	}
	if s := scoreHeadline("crash plunge loss bearish miss weak slump"); s != -1 {
		t.Errorf("expected clamp at -1, got %f", s)
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()
	if cfg.MaxHeadlines != 15 {
		t.Errorf("Expected MaxHeadlines to be 15, got %d", cfg.MaxHeadlines)
	}
	if cfg.CacheDuration != time.Hour {
		t.Errorf("Expected CacheDuration to be 1 hour, got %v", cfg.CacheDuration)
	}
}
