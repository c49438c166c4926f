// Package extraction turns an uploaded PDF invoice into a structured invoice
// document, either through the remote extraction service or through the
// embedded text+LLM extractor.
package extraction

import (
	"context"

	"xrechnung-gateway/internal/invoice"
)

// Service extracts a structured invoice document from PDF bytes. Partially
// populated documents are expected; the totals engine tolerates missing
// fields.
type Service interface {
	Extract(ctx context.Context, filename string, pdf []byte) (invoice.Document, error)
}
