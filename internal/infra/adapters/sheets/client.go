// Package sheets loads tenant knowledge bases from published Google Sheets
// via the CSV export endpoint. No Google credentials are needed; the sheet
// only has to be link-readable.
package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hotel-guest-concierge/internal/domain/ports/adapter"
)

var _ adapter.KnowledgeSource = (*Client)(nil)

type Client struct {
	baseURL string
	httpCli *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: "https://docs.google.com/spreadsheets/d",
		httpCli: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads the sheet as CSV and renders it as plain text, one row
// per line with cells joined by " | ". Empty rows are dropped.
func (c *Client) Fetch(ctx context.Context, spreadsheetID string) (string, error) {
	if spreadsheetID == "" {
		return "", fmt.Errorf("sheets: empty spreadsheet id")
	}
	endpoint := fmt.Sprintf("%s/%s/export?format=csv", c.baseURL, spreadsheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return "", fmt.Errorf("sheets: fetch %s: %w", spreadsheetID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sheets: fetch %s: status %d", spreadsheetID, resp.StatusCode)
	}

	return renderCSV(resp.Body)
}

func renderCSV(r io.Reader) (string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var b strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("sheets: parse csv: %w", err)
		}
		line := formatRow(record)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatRow(record []string) string {
	cells := make([]string, 0, len(record))
	for _, cell := range record {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	return strings.Join(cells, " | ")
}
