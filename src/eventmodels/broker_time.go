package eventmodels

import (
	"fmt"
	"time"
)

var brokerTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// ParseBrokerTime accepts the timestamp formats the brokerage API emits. Values without
// a zone are interpreted as UTC.
func ParseBrokerTime(value string) (time.Time, error) {
	for _, layout := range brokerTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", value)
}

func parseOptionalBrokerTime(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}

	return ParseBrokerTime(value)
}
