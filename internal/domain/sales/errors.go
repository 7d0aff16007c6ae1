package sales

import (
	"fmt"

	"github.com/dealerflow/backend/internal/domain/shared"
)

// ErrAllocationExhausted matches any allocation failure caused by repeated collisions
var ErrAllocationExhausted = shared.NewDomainError("ALLOCATION_EXHAUSTED", "Failed to generate document number")

// NewAllocationExhaustedError reports that every attempt produced a number already in use.
// This indicates the counter and the issued documents disagree and needs a data audit.
func NewAllocationExhaustedError(docType DocumentType, attempts int) *shared.DomainError {
	return shared.NewDomainError("ALLOCATION_EXHAUSTED", fmt.Sprintf(
		"Failed to generate a unique %s number after %d attempts", docType, attempts))
}

// NewSequenceOverflowError reports an issued number whose suffix leaves no room for a successor.
// The offending document was imported or entered by hand and needs a data audit.
func NewSequenceOverflowError(docType DocumentType, highest int64) *shared.DomainError {
	return shared.NewDomainError("ALLOCATION_EXHAUSTED", fmt.Sprintf(
		"Cannot continue the %s sequence after issued suffix %d", docType, highest))
}
