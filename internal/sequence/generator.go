// Package sequence issues monotonic, human-readable document numbers.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// Kind enumerates the document families sharing this generator.
type Kind string

const (
	KindInvoice    Kind = "INVOICE"
	KindCreditNote Kind = "CREDIT_NOTE"
	KindSalesOrder Kind = "SALES_ORDER"
)

// MaxAttempts bounds the retry loop callers run around Next.
//
// Next is read-increment-format without atomicity, so two concurrent callers
// can derive the same number. The storage layer rejects the duplicate via
// the uniqueness constraint on (company_id, document_number) and the caller
// retries; that pairing is part of the contract, not optional hardening.
const MaxAttempts = 3

// Repository reads the most recently issued number for a company, kind and
// period prefix, ordered by creation time. Empty string when none exists.
type Repository interface {
	LastDocumentNumber(ctx context.Context, companyID int64, kind Kind, prefix string) (string, error)
}

// Generator produces the next document number per company, kind and period.
type Generator struct {
	repo Repository
}

// NewGenerator constructs a Generator.
func NewGenerator(repo Repository) *Generator {
	return &Generator{repo: repo}
}

// Next returns the next formatted number for the kind's current period.
// The counter resets to 1 on year (invoice, credit note) or month
// (sales order) rollover, which the period prefix scoping gives for free.
func (g *Generator) Next(ctx context.Context, companyID int64, kind Kind, at time.Time) (string, error) {
	prefix, pad, err := periodPrefix(kind, at)
	if err != nil {
		return "", err
	}
	last, err := g.repo.LastDocumentNumber(ctx, companyID, kind, prefix)
	if err != nil {
		return "", shared.Persistencef("read last document number: %v", err)
	}
	seq := 1
	if last != "" {
		n, err := trailingSequence(last)
		if err != nil {
			return "", fmt.Errorf("sequence: malformed number %q: %w", last, err)
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s%0*d", prefix, pad, seq), nil
}

func periodPrefix(kind Kind, at time.Time) (prefix string, pad int, err error) {
	switch kind {
	case KindInvoice:
		return fmt.Sprintf("INV-%d-", at.Year()), 4, nil
	case KindCreditNote:
		return fmt.Sprintf("CN-%d-", at.Year()), 4, nil
	case KindSalesOrder:
		return fmt.Sprintf("SO-%d-%02d-", at.Year(), int(at.Month())), 5, nil
	default:
		return "", 0, shared.Validationf("unknown document kind %q", kind)
	}
}

func trailingSequence(number string) (int, error) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, fmt.Errorf("no trailing sequence")
	}
	return strconv.Atoi(number[idx+1:])
}
