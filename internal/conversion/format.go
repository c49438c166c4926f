// Package conversion calls the remote service that turns an edited invoice
// document into an XML or hybrid-PDF invoice artifact.
package conversion

import "fmt"

// OutputFormat selects the artifact produced by the conversion service.
type OutputFormat string

const (
	// Hybrid PDFs embed the invoice XML in a regular PDF (ZUGFeRD).
	FormatHybridXRechnung OutputFormat = "hybrid-pdf-xrechnung"
	FormatHybridEN16931   OutputFormat = "hybrid-pdf-en16931"
	// Plain XML in CII or UBL syntax.
	FormatXRechnungCII OutputFormat = "xml-xrechnung-cii"
	FormatXRechnungUBL OutputFormat = "xml-xrechnung-ubl"
	FormatEN16931CII   OutputFormat = "xml-en16931-cii"
	FormatEN16931UBL   OutputFormat = "xml-en16931-ubl"
)

// Language selects the document language of the rendered artifact.
type Language string

const (
	LanguageGerman  Language = "de"
	LanguageEnglish Language = "en"
)

// ParseFormat validates a format selector from a request.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatHybridXRechnung, FormatHybridEN16931,
		FormatXRechnungCII, FormatXRechnungUBL,
		FormatEN16931CII, FormatEN16931UBL:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// ParseLanguage validates a language selector from a request.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case LanguageGerman, LanguageEnglish:
		return l, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// IsHybrid reports whether the format produces a PDF container.
func (f OutputFormat) IsHybrid() bool {
	return f == FormatHybridXRechnung || f == FormatHybridEN16931
}

// FileExtension returns the file extension of the produced artifact.
func (f OutputFormat) FileExtension() string {
	if f.IsHybrid() {
		return ".pdf"
	}
	return ".xml"
}
