package invoicing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerline-erp/ledgerline-erp/internal/ledger"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// RecordPayment applies a receipt against an invoice's balance due and posts
// the matching cash entry: debit cash, credit receivables. The payment
// fields are reverted if the journal posting fails.
func (s *Service) RecordPayment(ctx context.Context, id int64, req RecordPaymentRequest) (*Invoice, error) {
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(ctx, actor, shared.ActionPay, shared.ResourceInvoice) {
		return nil, shared.ErrForbidden
	}

	inv, err := s.getWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.IsCreditNote {
		return nil, shared.BusinessRulef("credit notes are self-settling; no payment can be recorded")
	}
	if inv.Status == StatusCredited {
		return nil, shared.BusinessRulef("invoice %s has been credited", inv.DocumentNumber)
	}
	if req.Amount.Sign() <= 0 {
		return nil, shared.Validationf("payment amount must be positive")
	}
	if req.Amount.GreaterThan(inv.BalanceDue) {
		return nil, shared.BusinessRulef("payment %s exceeds balance due %s",
			req.Amount.StringFixed(2), inv.BalanceDue.StringFixed(2))
	}

	newPaid := inv.TotalPaid.Add(req.Amount)
	newBalance := inv.BalanceDue.Sub(req.Amount)
	status := PaymentPartial
	if newBalance.IsZero() {
		status = PaymentPaid
	}

	if err := s.repo.UpdatePayment(ctx, id, newPaid, newBalance, status); err != nil {
		return nil, shared.Persistencef("update payment: %v", err)
	}

	cash, err := s.account(ctx, inv.CompanyID, ledger.CodeCash)
	if err == nil {
		var receivables ledger.Account
		receivables, err = s.account(ctx, inv.CompanyID, ledger.CodeReceivables)
		if err == nil {
			narration := fmt.Sprintf("Payment against %s", inv.DocumentNumber)
			if req.Method != "" {
				narration = fmt.Sprintf("%s (%s)", narration, req.Method)
			}
			_, err = s.journal.Post(ctx, ledger.PostingInput{
				CompanyID:       inv.CompanyID,
				EntryDate:       s.now(),
				Narration:       narration,
				TransactionType: ledger.TransactionPayment,
				TransactionID:   inv.ID,
				PostedBy:        actor.ID,
				Lines: []ledger.PostingLineInput{
					{AccountID: cash.ID, Debit: req.Amount},
					{AccountID: receivables.ID, Credit: req.Amount},
				},
			})
		}
	}
	if err != nil {
		if rerr := s.repo.UpdatePayment(ctx, id, inv.TotalPaid, inv.BalanceDue, inv.PaymentStatus); rerr != nil {
			s.logger.Error("payment compensation failed",
				slog.Int64("invoice_id", id), slog.Any("error", rerr))
		}
		return nil, err
	}

	inv.TotalPaid = newPaid
	inv.BalanceDue = newBalance
	inv.PaymentStatus = status
	s.invalidateView(ctx, id)
	return &inv, nil
}
