package invoice

import (
	"strconv"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AdjustmentKind selects the allowances or charges collection.
type AdjustmentKind string

const (
	KindAllowance AdjustmentKind = "allowance"
	KindCharge    AdjustmentKind = "charge"
)

// Direction is the move direction for MoveLineItem.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Config holds engine parameters.
type Config struct {
	// Rounding is applied to every derived monetary field. Defaults to
	// RoundHalfUp.
	Rounding RoundingPolicy
	// DefaultTaxRate is assigned to freshly added line items and adjustments.
	// Defaults to the German standard rate of 19%.
	DefaultTaxRate decimal.Decimal
}

// Engine recomputes the derived monetary fields of a Document. All operations
// are pure: the input document is cloned and never mutated, so callers may
// keep and compare prior versions freely.
type Engine struct {
	round          RoundingPolicy
	defaultTaxRate decimal.Decimal
}

// NewEngine creates a totals engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Rounding == nil {
		cfg.Rounding = RoundHalfUp
	}
	if cfg.DefaultTaxRate.IsZero() {
		cfg.DefaultTaxRate = decimal.NewFromInt(19)
	}
	return &Engine{
		round:          cfg.Rounding,
		defaultTaxRate: cfg.DefaultTaxRate,
	}
}

// Recompute returns a copy of the document with every derived monetary field
// recalculated. Deterministic and idempotent.
func (e *Engine) Recompute(doc Document) Document {
	doc = doc.Clone()
	e.recompute(&doc)
	return doc
}

// recompute runs the fixed recomputation order in place. Each step depends
// only on the outputs of earlier steps.
func (e *Engine) recompute(doc *Document) {
	items := doc.Trade.Items
	for i := range items {
		it := &items[i]
		it.DeliveryDetails = e.round(it.Quantity.Mul(it.AgreementNetPrice))
		it.SettlementTax.Amount = e.round(it.DeliveryDetails.Mul(it.SettlementTax.Rate).Div(hundred))
		it.TotalAmount = e.round(it.DeliveryDetails.Add(it.SettlementTax.Amount))
	}

	itemsNet := decimal.Zero
	for i := range items {
		itemsNet = itemsNet.Add(items[i].DeliveryDetails)
	}
	itemsNet = e.round(itemsNet)

	// The basis of every document-level adjustment is the items net total,
	// regardless of what the entry previously carried.
	for i := range doc.Trade.Allowances {
		doc.Trade.Allowances[i].BasisAmount = itemsNet
	}
	for i := range doc.Trade.Charges {
		doc.Trade.Charges[i].BasisAmount = itemsNet
	}

	allowances := decimal.Zero
	for i := range doc.Trade.Allowances {
		allowances = allowances.Add(doc.Trade.Allowances[i].Amount)
	}
	allowances = e.round(allowances)

	charges := decimal.Zero
	for i := range doc.Trade.Charges {
		charges = charges.Add(doc.Trade.Charges[i].Amount)
	}
	charges = e.round(charges)

	netTotal := e.round(itemsNet.Sub(allowances).Add(charges))

	// Tax is summed over line items only. Allowance and charge tax data is
	// informational and not folded into the total.
	taxTotal := decimal.Zero
	for i := range items {
		taxTotal = taxTotal.Add(items[i].SettlementTax.Amount)
	}
	taxTotal = e.round(taxTotal)

	ms := &doc.Trade.Settlement.MonetarySummation
	ms.ItemsNetTotal = itemsNet
	ms.AllowancesNetTotal = allowances
	ms.ChargesNetTotal = charges
	ms.NetTotal = netTotal
	ms.TaxTotal = taxTotal
	ms.GrandTotal = e.round(netTotal.Add(taxTotal))
	ms.DueAmount = e.round(netTotal.Add(taxTotal).Sub(ms.PaidAmount).Add(ms.RoundingAmount))
}

// AddLineItem appends a new item with the next sequential line id, a quantity
// of one, a zero unit price and the default tax rate, then recomputes.
func (e *Engine) AddLineItem(doc Document) Document {
	doc = doc.Clone()
	doc.Trade.Items = append(doc.Trade.Items, LineItem{
		Type:     "Item",
		Quantity: decimal.NewFromInt(1),
		SettlementTax: Tax{
			Type: "Tax",
			Rate: e.defaultTaxRate,
		},
	})
	resequence(doc.Trade.Items)
	e.recompute(&doc)
	return doc
}

// RemoveLineItem removes the item at index, re-sequences the remaining line
// ids and recomputes. Returns ErrIndexOutOfRange for an invalid index.
func (e *Engine) RemoveLineItem(doc Document, index int) (Document, error) {
	if index < 0 || index >= len(doc.Trade.Items) {
		return doc, ErrIndexOutOfRange
	}
	doc = doc.Clone()
	doc.Trade.Items = append(doc.Trade.Items[:index], doc.Trade.Items[index+1:]...)
	resequence(doc.Trade.Items)
	e.recompute(&doc)
	return doc, nil
}

// MoveLineItem swaps the item at index with its neighbor in the given
// direction. Moving past either boundary is a no-op: the document is returned
// unchanged. Order does not affect totals, so no recomputation happens.
func (e *Engine) MoveLineItem(doc Document, index int, dir Direction) (Document, error) {
	if index < 0 || index >= len(doc.Trade.Items) {
		return doc, ErrIndexOutOfRange
	}
	other := index + 1
	if dir == DirectionUp {
		other = index - 1
	}
	if other < 0 || other >= len(doc.Trade.Items) {
		return doc, nil
	}
	doc = doc.Clone()
	items := doc.Trade.Items
	items[index], items[other] = items[other], items[index]
	resequence(items)
	return doc, nil
}

// AddAdjustment appends a zeroed allowance or charge with the default tax
// rate and a basis preset to the current items net total, then recomputes.
func (e *Engine) AddAdjustment(doc Document, kind AdjustmentKind) Document {
	doc = doc.Clone()
	entry := AdjustmentEntry{
		TaxRate:     e.defaultTaxRate,
		BasisAmount: doc.Trade.Settlement.MonetarySummation.ItemsNetTotal,
	}
	if kind == KindCharge {
		doc.Trade.Charges = append(doc.Trade.Charges, entry)
	} else {
		doc.Trade.Allowances = append(doc.Trade.Allowances, entry)
	}
	e.recompute(&doc)
	return doc
}

// RemoveAdjustment removes the allowance or charge at index and recomputes.
// Returns ErrIndexOutOfRange for an invalid index.
func (e *Engine) RemoveAdjustment(doc Document, kind AdjustmentKind, index int) (Document, error) {
	entries := doc.Trade.Allowances
	if kind == KindCharge {
		entries = doc.Trade.Charges
	}
	if index < 0 || index >= len(entries) {
		return doc, ErrIndexOutOfRange
	}
	doc = doc.Clone()
	if kind == KindCharge {
		doc.Trade.Charges = append(doc.Trade.Charges[:index], doc.Trade.Charges[index+1:]...)
	} else {
		doc.Trade.Allowances = append(doc.Trade.Allowances[:index], doc.Trade.Allowances[index+1:]...)
	}
	e.recompute(&doc)
	return doc, nil
}

// resequence rewrites the line ids to match the 1-based array order.
func resequence(items []LineItem) {
	for i := range items {
		items[i].LineID = strconv.Itoa(i + 1)
	}
}
