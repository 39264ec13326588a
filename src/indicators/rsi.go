package indicators

import (
	"math"
)

// Rsi is a streaming relative strength index. The first value is seeded with simple
// averages over Period deltas; later values use Wilder smoothing.
type Rsi struct {
	prevAvgGain *float64
	prevAvgLoss *float64
	closes      []float64
	Period      int
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func gainLoss(delta float64) (float64, float64) {
	if delta > 0 {
		return delta, 0
	}

	return 0, math.Abs(delta)
}

func (r *Rsi) smooth() (float64, float64) {
	if r.prevAvgGain != nil {
		curPrice := r.closes[len(r.closes)-1]
		prevPrice := r.closes[len(r.closes)-2]
		deltaGain, deltaLoss := gainLoss(curPrice - prevPrice)

		avgGain := ((*r.prevAvgGain)*(float64(r.Period)-1.0) + deltaGain) / float64(r.Period)
		avgLoss := ((*r.prevAvgLoss)*(float64(r.Period)-1.0) + deltaLoss) / float64(r.Period)
		return avgGain, avgLoss
	}

	gains := make([]float64, 0, r.Period)
	losses := make([]float64, 0, r.Period)
	for i := 1; i < len(r.closes); i++ {
		g, l := gainLoss(r.closes[i] - r.closes[i-1])
		gains = append(gains, g)
		losses = append(losses, l)
	}

	return average(gains), average(losses)
}

// Update feeds the next close and returns the RSI once Period+1 closes have been seen.
func (r *Rsi) Update(close float64) (float64, bool) {
	r.closes = append(r.closes, close)
	if len(r.closes) < r.Period+1 {
		return 0, false
	}

	avgGain, avgLoss := r.smooth()
	r.prevAvgGain = &avgGain
	r.prevAvgLoss = &avgLoss
	r.closes = r.closes[1:]

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, true
		}

		return 100, true
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}

// RsiFromCloses computes the latest RSI over closes given oldest first.
func RsiFromCloses(closes []float64, period int) (float64, bool) {
	rsi := NewRsi(period)

	var value float64
	var ready bool
	for _, c := range closes {
		value, ready = rsi.Update(c)
	}

	return value, ready
}

func NewRsi(period int) *Rsi {
	return &Rsi{
		Period: period,
	}
}
