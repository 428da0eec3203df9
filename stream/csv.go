package stream

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/whalecopy/market"
)

// CSVFeed replays scripted trade events from a CSV file. Used for demos and
// deterministic scenario tests.
type CSVFeed struct {
	f *os.File
	r *csv.Reader

	sawFirst bool
}

func NewCSV(path string) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return &CSVFeed{f: f, r: r}, nil
}

func (c *CSVFeed) Close() error {
	if c.f != nil {
		return c.f.Close()
	}
	return nil
}

// Expected columns:
// time,slug,title,outcome,wallet,side,price,size
// Header allowed; blank and short rows are skipped.
func (c *CSVFeed) Next(ctx context.Context) (market.RawEvent, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return market.RawEvent{}, false, err
		}

		row, err := c.r.Read()
		if err == io.EOF {
			return market.RawEvent{}, false, nil
		}
		if err != nil {
			return market.RawEvent{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		if !c.sawFirst {
			c.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		if len(row) < 8 {
			continue
		}

		ev, ok, err := parseEventRow(row)
		if err != nil {
			return market.RawEvent{}, false, err
		}
		if !ok {
			continue
		}
		return ev, true, nil
	}
}

func parseEventRow(row []string) (market.RawEvent, bool, error) {
	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return market.RawEvent{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return market.RawEvent{}, false, fmt.Errorf("stream: bad time %q: %w", ts, err)
		}
		t = t2
	}

	slug := strings.TrimSpace(row[1])
	if slug == "" {
		return market.RawEvent{}, false, nil
	}

	price, err := parseFloat(row[6])
	if err != nil {
		return market.RawEvent{}, false, fmt.Errorf("stream: bad price %q: %w", row[6], err)
	}
	size, err := parseFloat(row[7])
	if err != nil {
		return market.RawEvent{}, false, fmt.Errorf("stream: bad size %q: %w", row[7], err)
	}

	return market.RawEvent{
		Slug:    slug,
		Title:   strings.TrimSpace(row[2]),
		Outcome: strings.TrimSpace(row[3]),
		Wallet:  strings.TrimSpace(row[4]),
		Side:    market.Side(strings.ToUpper(strings.TrimSpace(row[5]))),
		Price:   price,
		Size:    size,
		Time:    t,
	}, true, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
