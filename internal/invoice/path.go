package invoice

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// SetField applies a dot-delimited field write to the document, e.g.
// "trade.items.0.quantity" or "trade.agreement.seller.name". The write is
// tolerant: missing optional containers are allocated, item and adjustment
// slices are extended with zeroed entries when addressed past their end, and
// unrecognized paths leave the document unchanged without error.
//
// Which writes trigger a full recomputation is decided by the typed resolver
// below, never by inspecting the path text: quantities, unit prices, line tax
// rates, adjustment amounts, and the paid/rounding inputs of the monetary
// summation all recompute; everything else is a plain leaf write.
func (e *Engine) SetField(doc Document, path string, value any) Document {
	doc = doc.Clone()
	if e.setField(&doc, strings.Split(path, "."), value) {
		e.recompute(&doc)
	}
	return doc
}

// setField routes the path segments to a typed setter. The return value
// reports whether the write requires recomputation.
func (e *Engine) setField(doc *Document, seg []string, value any) bool {
	if len(seg) == 0 {
		return false
	}
	switch seg[0] {
	case "header":
		setHeaderField(&doc.Header, seg[1:], value)
	case "context":
		if len(seg) == 2 && seg[1] == "guideline_parameter" {
			doc.Context.GuidelineParameter = toString(value)
		}
	case "intro_text":
		doc.IntroText = toString(value)
	case "trade":
		return e.setTradeField(&doc.Trade, seg[1:], value)
	}
	return false
}

func (e *Engine) setTradeField(tr *Trade, seg []string, value any) bool {
	if len(seg) == 0 {
		return false
	}
	switch seg[0] {
	case "agreement":
		setAgreementField(&tr.Agreement, seg[1:], value)
	case "delivery":
		if tr.Delivery == nil {
			tr.Delivery = &Delivery{}
		}
		setDeliveryField(tr.Delivery, seg[1:], value)
	case "settlement":
		return setSettlementField(&tr.Settlement, seg[1:], value)
	case "items":
		idx, rest, ok := splitIndex(seg[1:])
		if !ok {
			return false
		}
		for len(tr.Items) <= idx {
			tr.Items = append(tr.Items, LineItem{Type: "Item"})
		}
		resequence(tr.Items)
		return setItemField(&tr.Items[idx], rest, value)
	case "allowances":
		return setAdjustmentPath(&tr.Allowances, seg[1:], value)
	case "charges":
		return setAdjustmentPath(&tr.Charges, seg[1:], value)
	}
	return false
}

func setHeaderField(h *Header, seg []string, value any) {
	if len(seg) == 0 {
		return
	}
	switch seg[0] {
	case "id":
		h.ID = toString(value)
	case "type_code":
		h.TypeCode = toString(value)
	case "name":
		h.Name = toString(value)
	case "issue_date_time":
		h.IssueDateTime = toString(value)
	case "languages":
		h.Languages = toString(value)
	case "notes":
		idx, _, ok := splitIndex(seg[1:])
		if !ok {
			return
		}
		for len(h.Notes) <= idx {
			h.Notes = append(h.Notes, "")
		}
		h.Notes[idx] = toString(value)
	}
}

func setAgreementField(a *Agreement, seg []string, value any) {
	if len(seg) == 0 {
		return
	}
	switch seg[0] {
	case "seller":
		setPartyField(&a.Seller, seg[1:], value)
	case "buyer":
		setPartyField(&a.Buyer, seg[1:], value)
	case "contract_reference":
		a.ContractReference = toString(value)
	case "project_reference":
		a.ProjectReference = toString(value)
	case "purchase_order_reference":
		a.PurchaseOrderReference = toString(value)
	case "sales_order_reference":
		a.SalesOrderReference = toString(value)
	case "orders":
		idx, rest, ok := splitIndex(seg[1:])
		if !ok {
			return
		}
		for len(a.Orders) <= idx {
			a.Orders = append(a.Orders, Order{Type: "Order"})
		}
		if len(rest) == 1 && rest[0] == "date" {
			a.Orders[idx].Date = toString(value)
		}
	}
}

func setPartyField(p *Party, seg []string, value any) {
	if len(seg) == 0 {
		return
	}
	switch seg[0] {
	case "id":
		p.ID = toString(value)
	case "name":
		p.Name = toString(value)
	case "contact_name":
		p.ContactName = toString(value)
	case "tax_id":
		p.TaxID = toString(value)
	case "vat_id":
		p.VatID = toString(value)
	case "legal_form":
		p.LegalForm = toString(value)
	case "trade_name":
		p.TradeName = toString(value)
	case "reference":
		p.Reference = toString(value)
	case "electronic_address":
		p.ElectronicAddress = toString(value)
	case "electronic_address_type_code":
		p.ElectronicAddressTypeCode = toString(value)
	case "contact_email":
		p.ContactEmail = toString(value)
	case "contact_phone":
		p.ContactPhone = toString(value)
	case "address":
		setAddressField(&p.Address, seg[1:], value)
	}
}

func setAddressField(a *Address, seg []string, value any) {
	if len(seg) == 0 {
		return
	}
	switch seg[0] {
	case "country":
		a.Country = toString(value)
	case "country_code":
		a.CountryCode = toString(value)
	case "state":
		a.State = toString(value)
	case "street_name":
		a.StreetName = toString(value)
	case "street_name2":
		a.StreetName2 = toString(value)
	case "city_name":
		a.CityName = toString(value)
	case "postal_zone":
		a.PostalZone = toString(value)
	}
}

func setDeliveryField(d *Delivery, seg []string, value any) {
	if len(seg) == 0 {
		return
	}
	switch seg[0] {
	case "date":
		d.Date = toString(value)
	case "delivery_note_id":
		d.DeliveryNoteID = toString(value)
	case "delivery_party":
		if len(seg) >= 2 {
			switch seg[1] {
			case "name":
				d.DeliveryParty.Name = toString(value)
			case "address":
				setAddressField(&d.DeliveryParty.Address, seg[2:], value)
			}
		}
	}
}

func setSettlementField(s *Settlement, seg []string, value any) bool {
	if len(seg) == 0 {
		return false
	}
	switch seg[0] {
	case "currency_code":
		s.CurrencyCode = toString(value)
	case "payment_reference":
		s.PaymentReference = toString(value)
	case "payment_terms":
		s.PaymentTerms = toString(value)
	case "advance_payment_date":
		s.AdvancePaymentDate = toString(value)
	case "payee":
		if s.Payee == nil {
			s.Payee = &Payee{Type: "Payee"}
		}
		if len(seg) == 2 && seg[1] == "name" {
			s.Payee.Name = toString(value)
		}
	case "invoicee":
		if s.Invoicee == nil {
			s.Invoicee = &Payee{Type: "Invoicee"}
		}
		if len(seg) == 2 && seg[1] == "name" {
			s.Invoicee.Name = toString(value)
		}
	case "payment_means":
		setPaymentMeansField(&s.PaymentMeans, seg[1:], value)
	case "monetary_summation":
		if len(seg) != 2 {
			return false
		}
		switch seg[1] {
		case "paid_amount":
			s.MonetarySummation.PaidAmount = toDecimal(value)
			return true
		case "rounding_amount":
			s.MonetarySummation.RoundingAmount = toDecimal(value)
			return true
		}
	}
	return false
}

func setPaymentMeansField(pm *PaymentMeans, seg []string, value any) {
	if len(seg) == 0 {
		return
	}
	switch seg[0] {
	case "type_code":
		pm.TypeCode = toString(value)
	case "account_name":
		pm.AccountName = toString(value)
	case "iban":
		pm.IBAN = toString(value)
	case "bic":
		pm.BIC = toString(value)
	case "bank_name":
		pm.BankName = toString(value)
	}
}

func setItemField(it *LineItem, seg []string, value any) bool {
	if len(seg) == 0 {
		return false
	}
	switch seg[0] {
	case "product_name":
		it.ProductName = toString(value)
	case "description":
		it.Description = toString(value)
	case "id":
		it.ID = toString(value)
	case "order_position":
		it.OrderPosition = toString(value)
	case "quantity_unit":
		it.QuantityUnit = toString(value)
	case "period_start":
		it.PeriodStart = toString(value)
	case "period_end":
		it.PeriodEnd = toString(value)
	case "quantity":
		it.Quantity = toDecimal(value)
		return true
	case "agreement_net_price":
		it.AgreementNetPrice = toDecimal(value)
		return true
	case "settlement_tax":
		if len(seg) != 2 {
			return false
		}
		switch seg[1] {
		case "category":
			it.SettlementTax.Category = toString(value)
		case "rate":
			it.SettlementTax.Rate = toDecimal(value)
			return true
		}
	}
	return false
}

func setAdjustmentPath(entries *[]AdjustmentEntry, seg []string, value any) bool {
	idx, rest, ok := splitIndex(seg)
	if !ok {
		return false
	}
	for len(*entries) <= idx {
		*entries = append(*entries, AdjustmentEntry{})
	}
	return setAdjustmentField(&(*entries)[idx], rest, value)
}

func setAdjustmentField(a *AdjustmentEntry, seg []string, value any) bool {
	if len(seg) == 0 {
		return false
	}
	switch seg[0] {
	case "amount":
		a.Amount = toDecimal(value)
		return true
	case "percent":
		a.Percent = toDecimal(value)
	case "tax_category":
		a.TaxCategory = toString(value)
	case "tax_rate":
		a.TaxRate = toDecimal(value)
	case "reason":
		a.Reason = toString(value)
	}
	return false
}

// splitIndex consumes a leading numeric segment.
func splitIndex(seg []string) (int, []string, bool) {
	if len(seg) == 0 {
		return 0, nil, false
	}
	idx, err := strconv.Atoi(seg[0])
	if err != nil || idx < 0 {
		return 0, nil, false
	}
	return idx, seg[1:], true
}

// toString coerces a JSON leaf value to a string field.
func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return ""
	}
}

// toDecimal coerces a JSON leaf value to a decimal. Malformed or missing
// numerics become zero rather than failing.
func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case decimal.Decimal:
		return n
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
