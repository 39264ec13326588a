package run

import (
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

func WriteTradesCsv(out io.Writer, trades []eventmodels.Trade) error {
	if err := gocsv.Marshal(&trades, out); err != nil {
		return fmt.Errorf("WriteTradesCsv: %w", err)
	}

	return nil
}

// ExportTradesToCsv writes trades to a timestamped file in outDir and returns its path.
func ExportTradesToCsv(outDir string, trades []eventmodels.Trade, outFilePrefix string, now time.Time) (string, error) {
	outFilePath := path.Join(outDir, fmt.Sprintf("%s_%s.csv", outFilePrefix, now.Format("2006-01-02_15-04-05")))

	if _, err := os.Stat(outDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
			return "", fmt.Errorf("ExportTradesToCsv: failed to create directory: %w", err)
		}
	}

	file, err := os.Create(outFilePath)
	if err != nil {
		return "", fmt.Errorf("ExportTradesToCsv: failed to create file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&trades, file); err != nil {
		return "", fmt.Errorf("ExportTradesToCsv: failed to write to file: %w", err)
	}

	return outFilePath, nil
}
