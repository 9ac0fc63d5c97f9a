// Package rule implements the price-action signal source: a moving-average
// trend read screened by simple candlestick patterns, with an optional
// headline-sentiment veto.
package rule

import (
	"context"
	"fmt"
	"math"

	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/news"
	"capital-trading-bot/internal/ta"
	"capital-trading-bot/internal/types"
)

// patternWindow is how many recent bars the candlestick screen inspects.
const patternWindow = 5

type Source struct {
	shortSMA  int
	longSMA   int
	news      *news.Service
	vetoScore float64
}

func New(shortSMA, longSMA int) *Source {
	return &Source{shortSMA: shortSMA, longSMA: longSMA}
}

// WithNewsFilter adds the sentiment veto: a strongly negative score blocks
// longs, a strongly positive one blocks shorts.
func (s *Source) WithNewsFilter(svc *news.Service, vetoScore float64) *Source {
	s.news = svc
	s.vetoScore = vetoScore
	return s
}

func (s *Source) Evaluate(ctx context.Context, symbol string, bars []types.PriceBar) (types.Signal, error) {
	closes := ta.Closes(bars)

	shortMA := ta.SMA(closes, s.shortSMA)
	longMA := ta.SMA(closes, s.longSMA)
	if math.IsNaN(shortMA) || math.IsNaN(longMA) {
		return types.Signal{}, fmt.Errorf("evaluating %s: %w", symbol, types.ErrInsufficientData)
	}
	bullish := shortMA > longMA

	pattern := screenPatterns(bars)

	var sig types.Signal
	switch {
	case bullish && pattern != patternSell:
		sig = types.Signal{ShouldTrade: true, Direction: types.Long, Reason: "bullish_trend"}
	case !bullish && pattern == patternSell:
		sig = types.Signal{ShouldTrade: true, Direction: types.Short, Reason: "bearish_head_and_shoulders"}
	default:
		return types.Signal{ShouldTrade: false, Reason: "no_setup"}, nil
	}

	if s.news != nil {
		if vetoed, reason := s.newsVeto(ctx, symbol, sig.Direction); vetoed {
			return types.Signal{ShouldTrade: false, Reason: reason}, nil
		}
	}
	return sig, nil
}

func (s *Source) newsVeto(ctx context.Context, symbol string, direction types.Direction) (bool, string) {
	sent, err := s.news.Sentiment(ctx, symbol)
	if err != nil {
		// Sentiment is advisory; a failed scrape never blocks the signal.
		logger.Warn(ctx, "Sentiment lookup failed", "symbol", symbol, "error", err)
		return false, ""
	}
	if direction == types.Long && sent.Score <= -s.vetoScore {
		return true, "news_veto_negative"
	}
	if direction == types.Short && sent.Score >= s.vetoScore {
		return true, "news_veto_positive"
	}
	return false, ""
}

type patternResult string

const (
	patternSell    patternResult = "sell"
	patternWait    patternResult = "wait"
	patternNeutral patternResult = "neutral"
)

// screenPatterns inspects the last five bars: a five-high head-and-shoulders
// reads as a sell, and a run of flat candles (mean body under 0.3x the mean
// wick) as wait.
func screenPatterns(bars []types.PriceBar) patternResult {
	if len(bars) < patternWindow {
		return patternNeutral
	}
	last := bars[len(bars)-patternWindow:]

	highs := make([]float64, patternWindow)
	bodySum, wickSum := 0.0, 0.0
	for i, b := range last {
		highs[i] = b.High
		bodySum += math.Abs(b.Close - b.Open)
		wickSum += b.High - math.Max(b.Open, b.Close) + math.Min(b.Open, b.Close) - b.Low
	}

	if highs[0] > highs[1] && highs[2] > highs[0] && highs[2] > highs[4] && highs[4] > highs[3] {
		return patternSell
	}
	if bodySum/patternWindow < wickSum/patternWindow*0.3 {
		return patternWait
	}
	return patternNeutral
}
