package sales

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// NumberWidth is the zero-padded width of the numeric part of a document number
const NumberWidth = 5

// MaxPrefixLength bounds the display prefix stored on a counter
const MaxPrefixLength = 10

var (
	trailingDigits = regexp.MustCompile(`(\d+)$`)
	prefixPattern  = regexp.MustCompile(`^[A-Za-z0-9/-]*$`)
)

// SequenceCounter is the persisted numbering state for one (tenant, document type) pair.
// NextNumber is the next value to hand out; it only ever increases.
type SequenceCounter struct {
	TenantID     uuid.UUID
	DocumentType DocumentType
	NextNumber   int64
	Prefix       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LastAllocated returns the number most recently consumed from the counter,
// or 0 if the counter has never handed one out.
func (c *SequenceCounter) LastAllocated() int64 {
	if c.NextNumber <= 1 {
		return 0
	}
	return c.NextNumber - 1
}

// FormatDocumentNumber renders prefix + zero-padded number, e.g. INV00042
func FormatDocumentNumber(prefix string, number int64) string {
	return prefix + fmt.Sprintf("%0*d", NumberWidth, number)
}

// ParseTrailingNumber extracts the numeric suffix of a document number.
// Returns false when the number has no trailing digits.
func ParseTrailingNumber(documentNumber string) (int64, bool) {
	m := trailingDigits.FindStringSubmatch(documentNumber)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidatePrefix checks a display prefix against the allowed character set and length
func ValidatePrefix(prefix string) error {
	if len(prefix) > MaxPrefixLength {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Prefix cannot exceed %d characters", MaxPrefixLength))
	}
	if !prefixPattern.MatchString(prefix) {
		return shared.NewDomainError("INVALID_INPUT", "Prefix may only contain letters, digits, '-' and '/'")
	}
	return nil
}
