package paper

import "github.com/marketpulse/scanner/internal/domain"

// tradeStats summarizes a window of closed trades for Kelly sizing.
type tradeStats struct {
	total       int
	wins        int
	avgWin      float64
	avgLoss     float64 // positive magnitude
	winRate     float64
	winLossRate float64 // avgWin / avgLoss
}

func computeTradeStats(trades []domain.PaperTrade) tradeStats {
	var st tradeStats
	var sumWin, sumLoss float64
	for _, t := range trades {
		st.total++
		if t.PnL > 0 {
			st.wins++
			sumWin += t.PnL
		} else if t.PnL < 0 {
			sumLoss += -t.PnL
		}
	}
	if st.total == 0 {
		return st
	}
	st.winRate = float64(st.wins) / float64(st.total)
	losses := st.total - st.wins
	if st.wins > 0 {
		st.avgWin = sumWin / float64(st.wins)
	}
	if losses > 0 {
		st.avgLoss = sumLoss / float64(losses)
	}
	if st.avgLoss > 0 {
		st.winLossRate = st.avgWin / st.avgLoss
	}
	return st
}

// kellyFraction applies the Kelly Criterion f* = (p*b - q) / b, where
// p is win rate, q = 1-p, and b is the win/loss ratio. With fewer than
// 30 historical trades, or degenerate statistics (no wins, no losses,
// or no win/loss ratio), it falls back to a conservative flat 2%
// fraction rather than sizing off noisy statistics; a zero or negative
// edge returns 0.
// accountKelly further scales the result by the account's configured
// fraction-of-Kelly and the platform's 5% notional-fraction cap.
func kellyFraction(st tradeStats, accountKelly float64) float64 {
	const (
		minTrades        = 30
		fallbackFraction = 0.02
		hardCap          = 0.05
		floor            = 0.0
	)

	if st.total < minTrades || st.winRate <= 0 || st.winRate >= 1 || st.winLossRate <= 0 {
		return fallbackFraction
	}

	p := st.winRate
	q := 1 - p
	b := st.winLossRate
	f := (p*b - q) / b

	if f <= 0 {
		return floor
	}

	adjusted := f * accountKelly
	if adjusted > hardCap {
		adjusted = hardCap
	}
	return adjusted
}
