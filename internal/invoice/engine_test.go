package invoice

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

// testDocument builds a document with one item: quantity 2, unit price 10.00,
// tax rate 19%.
func testDocument() Document {
	doc := NewDocument()
	doc.Trade.Items = []LineItem{
		{
			LineID:            "1",
			ProductName:       "Consulting",
			Quantity:          dec("2"),
			AgreementNetPrice: dec("10.00"),
			SettlementTax:     Tax{Category: "S", Rate: dec("19")},
		},
	}
	return doc
}

func TestRecompute_SingleItem(t *testing.T) {
	engine := NewEngine(Config{})
	doc := engine.Recompute(testDocument())

	item := doc.Trade.Items[0]
	assertDecimal(t, "20.00", item.DeliveryDetails, "delivery_details")
	assertDecimal(t, "3.80", item.SettlementTax.Amount, "settlement_tax.amount")
	assertDecimal(t, "23.80", item.TotalAmount, "total_amount")

	ms := doc.Trade.Settlement.MonetarySummation
	assertDecimal(t, "20.00", ms.ItemsNetTotal, "items_net_total")
	assertDecimal(t, "20.00", ms.NetTotal, "net_total")
	assertDecimal(t, "3.80", ms.TaxTotal, "tax_total")
	assertDecimal(t, "23.80", ms.GrandTotal, "grand_total")
	assertDecimal(t, "23.80", ms.DueAmount, "due_amount")
}

func TestRecompute_ChargeNotFoldedIntoTax(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Charges = []AdjustmentEntry{
		{Amount: dec("5.00"), TaxCategory: "S", TaxRate: dec("19")},
	}

	doc = engine.Recompute(doc)

	ms := doc.Trade.Settlement.MonetarySummation
	assertDecimal(t, "5.00", ms.ChargesNetTotal, "charges_net_total")
	assertDecimal(t, "25.00", ms.NetTotal, "net_total")
	assertDecimal(t, "3.80", ms.TaxTotal, "tax_total")
	assertDecimal(t, "28.80", ms.GrandTotal, "grand_total")
}

func TestRecompute_AllowanceReducesNet(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Allowances = []AdjustmentEntry{{Amount: dec("2.50")}}

	doc = engine.Recompute(doc)

	ms := doc.Trade.Settlement.MonetarySummation
	assertDecimal(t, "2.50", ms.AllowancesNetTotal, "allowances_net_total")
	assertDecimal(t, "17.50", ms.NetTotal, "net_total")
	assertDecimal(t, "21.30", ms.GrandTotal, "grand_total")
}

func TestRecompute_BasisPropagation(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Allowances = []AdjustmentEntry{
		{Amount: dec("1.00"), BasisAmount: dec("999")},
		{Amount: dec("2.00")},
	}
	doc.Trade.Charges = []AdjustmentEntry{{Amount: dec("3.00"), BasisAmount: dec("-1")}}

	doc = engine.Recompute(doc)

	itemsNet := doc.Trade.Settlement.MonetarySummation.ItemsNetTotal
	for _, a := range doc.Trade.Allowances {
		assert.True(t, itemsNet.Equal(a.BasisAmount), "allowance basis must equal items net total")
	}
	for _, c := range doc.Trade.Charges {
		assert.True(t, itemsNet.Equal(c.BasisAmount), "charge basis must equal items net total")
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Items = append(doc.Trade.Items, LineItem{
		LineID:            "2",
		Quantity:          dec("3.5"),
		AgreementNetPrice: dec("0.333"),
		SettlementTax:     Tax{Rate: dec("7")},
	})
	doc.Trade.Allowances = []AdjustmentEntry{{Amount: dec("0.05")}}
	doc.Trade.Settlement.MonetarySummation.PaidAmount = dec("10")

	once := engine.Recompute(doc)
	twice := engine.Recompute(once)

	a, err := json.Marshal(once)
	require.NoError(t, err)
	b, err := json.Marshal(twice)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestRecompute_DueAmountUsesPaidAndRounding(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Settlement.MonetarySummation.PaidAmount = dec("10.00")
	doc.Trade.Settlement.MonetarySummation.RoundingAmount = dec("0.20")

	doc = engine.Recompute(doc)

	// 20.00 + 3.80 - 10.00 + 0.20
	assertDecimal(t, "14.00", doc.Trade.Settlement.MonetarySummation.DueAmount, "due_amount")
}

func TestRecompute_MissingNumericsTreatedAsZero(t *testing.T) {
	engine := NewEngine(Config{})
	doc := NewDocument()
	doc.Trade.Items = []LineItem{{LineID: "1", ProductName: "empty"}}

	doc = engine.Recompute(doc)

	ms := doc.Trade.Settlement.MonetarySummation
	assertDecimal(t, "0.00", ms.GrandTotal, "grand_total")
	assertDecimal(t, "0.00", ms.DueAmount, "due_amount")
}

func TestRecompute_NegativeValuesPropagate(t *testing.T) {
	engine := NewEngine(Config{})
	doc := NewDocument()
	doc.Trade.Items = []LineItem{
		{LineID: "1", Quantity: dec("-1"), AgreementNetPrice: dec("10"), SettlementTax: Tax{Rate: dec("19")}},
	}

	doc = engine.Recompute(doc)

	assertDecimal(t, "-10.00", doc.Trade.Items[0].DeliveryDetails, "delivery_details")
	assertDecimal(t, "-1.90", doc.Trade.Items[0].SettlementTax.Amount, "settlement_tax.amount")
	assertDecimal(t, "-11.90", doc.Trade.Settlement.MonetarySummation.GrandTotal, "grand_total")
}

func TestRecompute_RoundsEachStoredField(t *testing.T) {
	engine := NewEngine(Config{})
	doc := NewDocument()
	doc.Trade.Items = []LineItem{
		{LineID: "1", Quantity: dec("3"), AgreementNetPrice: dec("0.333"), SettlementTax: Tax{Rate: dec("19")}},
	}

	doc = engine.Recompute(doc)

	// 3 * 0.333 = 0.999 -> 1.00, then 1.00 * 0.19 = 0.19
	assertDecimal(t, "1.00", doc.Trade.Items[0].DeliveryDetails, "delivery_details")
	assertDecimal(t, "0.19", doc.Trade.Items[0].SettlementTax.Amount, "settlement_tax.amount")
	assert.LessOrEqual(t, int(doc.Trade.Items[0].DeliveryDetails.Exponent()*-1), 2)
}

func TestRecompute_HalfEvenPolicy(t *testing.T) {
	engine := NewEngine(Config{Rounding: RoundHalfEven})
	doc := NewDocument()
	doc.Trade.Items = []LineItem{
		{LineID: "1", Quantity: dec("1"), AgreementNetPrice: dec("0.125")},
	}

	doc = engine.Recompute(doc)

	assertDecimal(t, "0.12", doc.Trade.Items[0].DeliveryDetails, "delivery_details")
}

func TestRecompute_DoesNotMutateInput(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	_ = engine.Recompute(doc)

	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestAddLineItem_AssignsSequentialIDAndDefaults(t *testing.T) {
	engine := NewEngine(Config{})
	doc := engine.AddLineItem(testDocument())

	require.Len(t, doc.Trade.Items, 2)
	added := doc.Trade.Items[1]
	assert.Equal(t, "2", added.LineID)
	assertDecimal(t, "1", added.Quantity, "quantity")
	assertDecimal(t, "0", added.AgreementNetPrice, "agreement_net_price")
	assertDecimal(t, "19", added.SettlementTax.Rate, "settlement_tax.rate")
	assertDecimal(t, "0.00", added.DeliveryDetails, "delivery_details")
}

func TestRemoveLineItem_Resequences(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Items = append(doc.Trade.Items, LineItem{
		LineID:            "2",
		ProductName:       "Hosting",
		Quantity:          dec("1"),
		AgreementNetPrice: dec("5.00"),
		SettlementTax:     Tax{Rate: dec("19")},
	})
	doc = engine.Recompute(doc)

	doc, err := engine.RemoveLineItem(doc, 0)
	require.NoError(t, err)

	require.Len(t, doc.Trade.Items, 1)
	assert.Equal(t, "1", doc.Trade.Items[0].LineID)
	assert.Equal(t, "Hosting", doc.Trade.Items[0].ProductName)
	assertDecimal(t, "5.00", doc.Trade.Settlement.MonetarySummation.ItemsNetTotal, "items_net_total")
}

func TestRemoveLineItem_InvalidIndex(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Items = append(doc.Trade.Items, LineItem{LineID: "2"}, LineItem{LineID: "3"})

	_, err := engine.RemoveLineItem(doc, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = engine.RemoveLineItem(doc, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMoveLineItem_SwapsAndResequences(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Items = append(doc.Trade.Items, LineItem{LineID: "2", ProductName: "Second"})

	doc, err := engine.MoveLineItem(doc, 1, DirectionUp)
	require.NoError(t, err)

	assert.Equal(t, "Second", doc.Trade.Items[0].ProductName)
	assert.Equal(t, "1", doc.Trade.Items[0].LineID)
	assert.Equal(t, "2", doc.Trade.Items[1].LineID)
}

func TestMoveLineItem_BoundaryIsNoOp(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Items = append(doc.Trade.Items, LineItem{LineID: "2", ProductName: "Second"})

	moved, err := engine.MoveLineItem(doc, 0, DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, doc.Trade.Items, moved.Trade.Items)

	moved, err = engine.MoveLineItem(doc, 1, DirectionDown)
	require.NoError(t, err)
	assert.Equal(t, doc.Trade.Items, moved.Trade.Items)
}

func TestMoveLineItem_InvalidIndex(t *testing.T) {
	engine := NewEngine(Config{})
	_, err := engine.MoveLineItem(testDocument(), 7, DirectionDown)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestAddAdjustment_PresetsBasis(t *testing.T) {
	engine := NewEngine(Config{})
	doc := engine.Recompute(testDocument())

	doc = engine.AddAdjustment(doc, KindCharge)

	require.Len(t, doc.Trade.Charges, 1)
	assertDecimal(t, "20.00", doc.Trade.Charges[0].BasisAmount, "basis_amount")
	assertDecimal(t, "19", doc.Trade.Charges[0].TaxRate, "tax_rate")
	assertDecimal(t, "0", doc.Trade.Charges[0].Amount, "amount")
}

func TestRemoveAdjustment(t *testing.T) {
	engine := NewEngine(Config{})
	doc := testDocument()
	doc.Trade.Allowances = []AdjustmentEntry{{Amount: dec("2.00")}, {Amount: dec("3.00")}}
	doc = engine.Recompute(doc)

	doc, err := engine.RemoveAdjustment(doc, KindAllowance, 0)
	require.NoError(t, err)

	require.Len(t, doc.Trade.Allowances, 1)
	assertDecimal(t, "3.00", doc.Trade.Settlement.MonetarySummation.AllowancesNetTotal, "allowances_net_total")

	_, err = engine.RemoveAdjustment(doc, KindAllowance, 3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = engine.RemoveAdjustment(doc, KindCharge, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLineIDInvariantAcrossOperations(t *testing.T) {
	engine := NewEngine(Config{})
	doc := engine.AddLineItem(engine.AddLineItem(engine.AddLineItem(NewDocument())))

	doc, err := engine.RemoveLineItem(doc, 1)
	require.NoError(t, err)
	doc, err = engine.MoveLineItem(doc, 0, DirectionDown)
	require.NoError(t, err)

	for i, item := range doc.Trade.Items {
		assert.Equal(t, strconv.Itoa(i+1), item.LineID)
	}
}
