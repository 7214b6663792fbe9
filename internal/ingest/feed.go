package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	logx "github.com/webshop-agent/server/pkg/logger"
)

// ProductRecord is one row of the product feed.
type ProductRecord struct {
	ID          string
	Title       string
	Description string
	Category    string
	Text        string
	Price       float64
}

// SearchableText concatenates the descriptive fields into the text that gets
// embedded. The raw Text field usually carries the product HTML.
func (r ProductRecord) SearchableText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{r.Title, r.Category, r.Description, r.Text} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// LoadFeed reads a headered CSV product feed. Column order is free; id and
// text are expected, the rest is optional. An unparsable price is logged and
// kept as zero so the record can still be indexed.
func LoadFeed(path string) ([]ProductRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open product feed: %w", err)
	}
	defer f.Close()

	return readFeed(f)
}

func readFeed(r io.Reader) ([]ProductRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read feed header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("product feed has no id column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []ProductRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feed row: %w", err)
		}

		rec := ProductRecord{
			ID:          strings.TrimSpace(field(row, "id")),
			Title:       field(row, "title"),
			Description: field(row, "description"),
			Category:    field(row, "category"),
			Text:        field(row, "text"),
		}
		if raw := strings.TrimSpace(field(row, "price")); raw != "" {
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				logx.Warn().Str("product_id", rec.ID).Str("price", raw).Msg("unparsable feed price, keeping zero")
			} else {
				rec.Price = price
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
