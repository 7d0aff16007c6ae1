package sales

import (
	"strings"

	"github.com/dealerflow/backend/internal/domain/shared"
)

// DocumentType is a category of sales document with its own numbering sequence
type DocumentType string

const (
	DocumentTypeInvoice        DocumentType = "INVOICE"
	DocumentTypeDepositReceipt DocumentType = "DEPOSIT_RECEIPT"
	DocumentTypeCreditNote     DocumentType = "CREDIT_NOTE"
)

var defaultPrefixes = map[DocumentType]string{
	DocumentTypeInvoice:        "INV",
	DocumentTypeDepositReceipt: "DEP",
	DocumentTypeCreditNote:     "CN",
}

// AllDocumentTypes returns every supported document type
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeInvoice,
		DocumentTypeDepositReceipt,
		DocumentTypeCreditNote,
	}
}

// ParseDocumentType parses a document type case-insensitively
func ParseDocumentType(s string) (DocumentType, error) {
	dt := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	if !dt.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", "Unknown document type: "+s)
	}
	return dt, nil
}

// IsValid reports whether the document type is one of the supported types
func (t DocumentType) IsValid() bool {
	_, ok := defaultPrefixes[t]
	return ok
}

// DefaultPrefix returns the prefix used when a dealer has not configured one
func (t DocumentType) DefaultPrefix() string {
	return defaultPrefixes[t]
}

// String returns the string representation
func (t DocumentType) String() string {
	return string(t)
}
