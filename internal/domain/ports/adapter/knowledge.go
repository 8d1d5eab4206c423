package adapter

import "context"

// KnowledgeSource fetches the raw knowledge-base text for a tenant
// spreadsheet. Implementations wrap the spreadsheet export endpoint.
type KnowledgeSource interface {
	Fetch(ctx context.Context, spreadsheetID string) (string, error)
}
