package invoice

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_DecimalsMarshalAsNumbers(t *testing.T) {
	engine := NewEngine(Config{})
	doc := engine.Recompute(testDocument())

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	// The extraction and conversion services exchange plain JSON numbers.
	assert.Contains(t, string(data), `"grand_total":23.8`)
	assert.NotContains(t, string(data), `"grand_total":"`)
}

func TestDocument_AcceptsPartialExtractionOutput(t *testing.T) {
	raw := `{
		"header": {"id": "R-77", "notes": ["danke"]},
		"trade": {
			"agreement": {"seller": {"name": "Muster GmbH", "address": {"country": "Deutschland"}}},
			"settlement": {"currency_code": "EUR", "monetary_summation": {"tax_total": 1.9}},
			"items": [{"line_id": "1", "product_name": "Ware", "quantity": 1, "agreement_net_price": 10,
				"settlement_tax": {"category": "S", "rate": 19}}]
		}
	}`

	var doc Document
	require.NoError(t, json.NewDecoder(strings.NewReader(raw)).Decode(&doc))

	engine := NewEngine(Config{})
	doc = engine.Recompute(doc)
	assertDecimal(t, "11.90", doc.Trade.Settlement.MonetarySummation.GrandTotal, "grand_total")
}

func TestClone_IsIndependent(t *testing.T) {
	doc := testDocument()
	doc.Trade.Allowances = []AdjustmentEntry{{Amount: dec("1")}}

	clone := doc.Clone()
	clone.Trade.Items[0].ProductName = "changed"
	clone.Trade.Allowances[0].Amount = dec("9")
	clone.Header.Notes = append(clone.Header.Notes, "note")

	assert.Equal(t, "Consulting", doc.Trade.Items[0].ProductName)
	assertDecimal(t, "1", doc.Trade.Allowances[0].Amount, "amount")
	assert.Empty(t, doc.Header.Notes)
}
