// Package invoice holds the structured invoice document exchanged with the
// extraction and conversion services, and the totals engine that keeps its
// derived monetary fields consistent.
package invoice

import (
	"slices"

	"github.com/shopspring/decimal"
)

func init() {
	// The extraction and conversion services exchange monetary values as JSON
	// numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Document is the root invoice aggregate. Field names and the "type"
// discriminators follow the wire shape of the extraction service.
type Document struct {
	Context            Context  `json:"context"`
	Header             Header   `json:"header"`
	Trade              Trade    `json:"trade"`
	DocumentReferences []string `json:"document_references,omitempty"`
	IntroText          string   `json:"intro_text,omitempty"`
	OutputFormat       string   `json:"output_format,omitempty"`
	OutputLangCode     string   `json:"output_lang_code,omitempty"`
}

// Context carries processing parameters for the conversion service.
type Context struct {
	Type               string `json:"type,omitempty"`
	GuidelineParameter string `json:"guideline_parameter"`
}

// Header holds invoice metadata.
type Header struct {
	ID            string   `json:"id"`
	Type          string   `json:"type,omitempty"`
	TypeCode      string   `json:"type_code"`
	Name          string   `json:"name"`
	IssueDateTime string   `json:"issue_date_time"`
	Languages     string   `json:"languages"`
	Notes         []string `json:"notes"`
}

// Trade groups the agreement, delivery, settlement and billed positions.
type Trade struct {
	Type          string            `json:"type,omitempty"`
	Agreement     Agreement         `json:"agreement"`
	Settlement    Settlement        `json:"settlement"`
	Items         []LineItem        `json:"items"`
	Allowances    []AdjustmentEntry `json:"allowances,omitempty"`
	Charges       []AdjustmentEntry `json:"charges,omitempty"`
	BillingPeriod *BillingPeriod    `json:"billing_period,omitempty"`
	Delivery      *Delivery         `json:"delivery,omitempty"`
}

// Agreement holds the trading parties and document references.
type Agreement struct {
	Type                   string  `json:"type,omitempty"`
	Seller                 Party   `json:"seller"`
	Buyer                  Party   `json:"buyer"`
	Orders                 []Order `json:"orders,omitempty"`
	ContractReference      string  `json:"contract_reference,omitempty"`
	ProjectReference       string  `json:"project_reference,omitempty"`
	PurchaseOrderReference string  `json:"purchase_order_reference,omitempty"`
	SalesOrderReference    string  `json:"sales_order_reference,omitempty"`
}

// Party is a seller or buyer with address, tax identifiers and contact data.
type Party struct {
	Type                      string  `json:"type,omitempty"`
	ID                        string  `json:"id,omitempty"`
	Name                      string  `json:"name"`
	ContactName               string  `json:"contact_name,omitempty"`
	Address                   Address `json:"address"`
	TaxID                     string  `json:"tax_id,omitempty"`
	VatID                     string  `json:"vat_id,omitempty"`
	LegalForm                 string  `json:"legal_form,omitempty"`
	TradeName                 string  `json:"trade_name,omitempty"`
	Reference                 string  `json:"reference,omitempty"`
	ElectronicAddress         string  `json:"electronic_address,omitempty"`
	ElectronicAddressTypeCode string  `json:"electronic_address_type_code,omitempty"`
	ContactEmail              string  `json:"contact_email,omitempty"`
	ContactPhone              string  `json:"contact_phone,omitempty"`
}

// Address is a postal address.
type Address struct {
	Type        string `json:"type,omitempty"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code,omitempty"`
	State       string `json:"state,omitempty"`
	StreetName  string `json:"street_name,omitempty"`
	StreetName2 string `json:"street_name2,omitempty"`
	CityName    string `json:"city_name,omitempty"`
	PostalZone  string `json:"postal_zone,omitempty"`
}

// Order is a referenced purchase order.
type Order struct {
	Type string `json:"type,omitempty"`
	Date string `json:"date"`
}

// BillingPeriod bounds the invoiced period.
type BillingPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Delivery holds the delivery party and date.
type Delivery struct {
	Date           string        `json:"date"`
	DeliveryNoteID string        `json:"delivery_note_id,omitempty"`
	DeliveryParty  DeliveryParty `json:"delivery_party"`
}

// DeliveryParty is the recipient of the goods or services.
type DeliveryParty struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

// Settlement holds currency, payment data and the derived monetary summation.
type Settlement struct {
	Type               string            `json:"type,omitempty"`
	Payee              *Payee            `json:"payee,omitempty"`
	Invoicee           *Payee            `json:"invoicee,omitempty"`
	CurrencyCode       string            `json:"currency_code"`
	PaymentMeans       PaymentMeans      `json:"payment_means"`
	AdvancePaymentDate string            `json:"advance_payment_date,omitempty"`
	TradeTax           []TradeTax        `json:"trade_tax,omitempty"`
	MonetarySummation  MonetarySummation `json:"monetary_summation"`
	PaymentReference   string            `json:"payment_reference,omitempty"`
	PaymentTerms       string            `json:"payment_terms,omitempty"`
}

// Payee is a payment recipient named separately from the seller.
type Payee struct {
	Type string `json:"type,omitempty"`
	Name string `json:"name"`
}

// PaymentMeans describes how the invoice is to be paid.
type PaymentMeans struct {
	Type        string `json:"type,omitempty"`
	TypeCode    string `json:"type_code"`
	AccountName string `json:"account_name,omitempty"`
	IBAN        string `json:"iban,omitempty"`
	BIC         string `json:"bic,omitempty"`
	BankName    string `json:"bank_name,omitempty"`
}

// TradeTax is one entry of the document-level tax breakdown.
type TradeTax struct {
	Type     string          `json:"type,omitempty"`
	Category string          `json:"category"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonetarySummation is the wholly derived totals block. PaidAmount and
// RoundingAmount are the only user-editable inputs; everything else is
// recomputed by the engine.
type MonetarySummation struct {
	Type               string          `json:"type,omitempty"`
	ItemsNetTotal      decimal.Decimal `json:"items_net_total"`
	AllowancesNetTotal decimal.Decimal `json:"allowances_net_total"`
	ChargesNetTotal    decimal.Decimal `json:"charges_net_total"`
	NetTotal           decimal.Decimal `json:"net_total"`
	TaxTotal           decimal.Decimal `json:"tax_total"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	RoundingAmount     decimal.Decimal `json:"rounding_amount"`
	DueAmount          decimal.Decimal `json:"due_amount"`
}

// LineItem is one billed position. DeliveryDetails, SettlementTax.Amount and
// TotalAmount are derived; LineID always reflects the 1-based array position.
type LineItem struct {
	Type              string          `json:"type,omitempty"`
	LineID            string          `json:"line_id"`
	ID                string          `json:"id,omitempty"`
	ProductName       string          `json:"product_name"`
	Description       string          `json:"description,omitempty"`
	OrderPosition     string          `json:"order_position,omitempty"`
	PeriodStart       string          `json:"period_start,omitempty"`
	PeriodEnd         string          `json:"period_end,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	QuantityUnit      string          `json:"quantity_unit,omitempty"`
	AgreementNetPrice decimal.Decimal `json:"agreement_net_price"`
	DeliveryDetails   decimal.Decimal `json:"delivery_details"`
	SettlementTax     Tax             `json:"settlement_tax"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}

// Tax is the tax applied to a single line item.
type Tax struct {
	Type     string          `json:"type,omitempty"`
	Category string          `json:"category"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// AdjustmentEntry is a document-level allowance or charge. BasisAmount is
// derived and always forced to the current items net total.
type AdjustmentEntry struct {
	Type        string          `json:"type,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Percent     decimal.Decimal `json:"percent"`
	BasisAmount decimal.Decimal `json:"basis_amount"`
	TaxCategory string          `json:"tax_category,omitempty"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Reason      string          `json:"reason,omitempty"`
}

// NewDocument returns the default skeleton used when a session starts without
// extraction output: empty collections and a zero monetary summation.
func NewDocument() Document {
	return Document{
		Context: Context{Type: "Context"},
		Header:  Header{Type: "Header", Notes: []string{}},
		Trade: Trade{
			Type: "Trade",
			Agreement: Agreement{
				Type:   "Agreement",
				Seller: Party{Type: "Seller"},
				Buyer:  Party{Type: "Buyer"},
			},
			Settlement: Settlement{
				Type:              "Settlement",
				PaymentMeans:      PaymentMeans{Type: "PaymentMeans"},
				MonetarySummation: MonetarySummation{Type: "MonetarySummation"},
			},
			Items: []LineItem{},
		},
	}
}

// Clone returns a deep copy of the document. Decimal values are immutable, so
// cloning the slices and pointer fields is sufficient.
func (d Document) Clone() Document {
	out := d
	out.Header.Notes = slices.Clone(d.Header.Notes)
	out.DocumentReferences = slices.Clone(d.DocumentReferences)
	out.Trade.Agreement.Orders = slices.Clone(d.Trade.Agreement.Orders)
	out.Trade.Items = slices.Clone(d.Trade.Items)
	out.Trade.Allowances = slices.Clone(d.Trade.Allowances)
	out.Trade.Charges = slices.Clone(d.Trade.Charges)
	out.Trade.Settlement.TradeTax = slices.Clone(d.Trade.Settlement.TradeTax)
	if d.Trade.BillingPeriod != nil {
		bp := *d.Trade.BillingPeriod
		out.Trade.BillingPeriod = &bp
	}
	if d.Trade.Delivery != nil {
		dl := *d.Trade.Delivery
		out.Trade.Delivery = &dl
	}
	if d.Trade.Settlement.Payee != nil {
		p := *d.Trade.Settlement.Payee
		out.Trade.Settlement.Payee = &p
	}
	if d.Trade.Settlement.Invoicee != nil {
		p := *d.Trade.Settlement.Invoicee
		out.Trade.Settlement.Invoicee = &p
	}
	return out
}
