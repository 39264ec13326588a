package eventmodels

import (
	"fmt"
	"time"
)

// OHLCVBar is one candle as returned by the brokerage API. Lists of bars are ordered
// newest first.
type OHLCVBar struct {
	Datetime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
}

type OHLCVBarDTO struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
}

func (dto OHLCVBarDTO) ToModel() (OHLCVBar, error) {
	dt, err := ParseBrokerTime(dto.Datetime)
	if err != nil {
		return OHLCVBar{}, fmt.Errorf("OHLCVBarDTO.ToModel: failed to parse datetime: %w", err)
	}

	if dto.Close <= 0 {
		return OHLCVBar{}, fmt.Errorf("OHLCVBarDTO.ToModel: close must be positive, got %v", dto.Close)
	}

	return OHLCVBar{
		Datetime: dt,
		Open:     dto.Open,
		High:     dto.High,
		Low:      dto.Low,
		Close:    dto.Close,
		Volume:   dto.Volume,
	}, nil
}

type OHLCVResponseDTO struct {
	Bars []OHLCVBarDTO `json:"bars"`
}

func (dto OHLCVResponseDTO) ToModel() ([]OHLCVBar, error) {
	bars := make([]OHLCVBar, 0, len(dto.Bars))
	for _, b := range dto.Bars {
		bar, err := b.ToModel()
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// Closes returns the closing prices in chronological order (oldest first).
func Closes(bars []OHLCVBar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[len(bars)-1-i] = bar.Close
	}

	return closes
}
