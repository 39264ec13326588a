package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Sma returns the simple moving average of the last period values.
func Sma(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("Sma: period must be positive, got %d", period)
	}

	if len(values) < period {
		return 0, fmt.Errorf("Sma: need %d values, got %d", period, len(values))
	}

	mean, err := stats.Mean(values[len(values)-period:])
	if err != nil {
		return 0, fmt.Errorf("Sma: failed to calculate mean: %w", err)
	}

	return mean, nil
}
