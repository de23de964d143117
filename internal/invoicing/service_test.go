package invoicing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline-erp/ledgerline-erp/internal/auditlog"
	"github.com/ledgerline-erp/ledgerline-erp/internal/ledger"
	"github.com/ledgerline-erp/ledgerline-erp/internal/masterdata"
	"github.com/ledgerline-erp/ledgerline-erp/internal/sequence"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ---- fakes ----

type memRepo struct {
	invoices map[int64]*Invoice
	items    map[int64][]InvoiceItem
	nextID   int64

	duplicateFailures int
}

func newMemRepo() *memRepo {
	return &memRepo{invoices: map[int64]*Invoice{}, items: map[int64][]InvoiceItem{}}
}

func (r *memRepo) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	if r.duplicateFailures > 0 {
		r.duplicateFailures--
		return Invoice{}, fmt.Errorf("document number %s: %w", inv.DocumentNumber, shared.ErrDuplicate)
	}
	for _, existing := range r.invoices {
		if existing.CompanyID == inv.CompanyID && existing.DocumentNumber == inv.DocumentNumber {
			return Invoice{}, fmt.Errorf("document number %s: %w", inv.DocumentNumber, shared.ErrDuplicate)
		}
	}
	r.nextID++
	inv.ID = r.nextID
	inv.CreatedAt = inv.FinalizedAt
	stored := inv
	stored.Items = nil
	r.invoices[inv.ID] = &stored
	return inv, nil
}

func (r *memRepo) InsertItem(ctx context.Context, item InvoiceItem) (InvoiceItem, error) {
	r.nextID++
	item.ID = r.nextID
	r.items[item.InvoiceID] = append(r.items[item.InvoiceID], item)
	return item, nil
}

func (r *memRepo) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return *inv, nil
}

func (r *memRepo) ListItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	return append([]InvoiceItem(nil), r.items[invoiceID]...), nil
}

func (r *memRepo) ListInvoices(ctx context.Context, companyID int64, limit, offset int) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.CompanyID == companyID {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRepo) UpdateTotals(ctx context.Context, inv Invoice) error {
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Subtotal = inv.Subtotal
	stored.GSTAmount = inv.GSTAmount
	stored.DiscountAmount = inv.DiscountAmount
	stored.AdjustmentAmount = inv.AdjustmentAmount
	stored.TotalAmount = inv.TotalAmount
	stored.BalanceDue = inv.BalanceDue
	stored.Notes = inv.Notes
	stored.Status = inv.Status
	stored.EditedAt = inv.EditedAt
	stored.EditedBy = inv.EditedBy
	return nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	stored, ok := r.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Status = status
	return nil
}

func (r *memRepo) UpdatePayment(ctx context.Context, id int64, totalPaid, balanceDue decimal.Decimal, status PaymentStatus) error {
	stored, ok := r.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.TotalPaid = totalPaid
	stored.BalanceDue = balanceDue
	stored.PaymentStatus = status
	return nil
}

func (r *memRepo) DeleteItems(ctx context.Context, invoiceID int64) error {
	delete(r.items, invoiceID)
	return nil
}

func (r *memRepo) DeleteInvoice(ctx context.Context, id int64) error {
	delete(r.invoices, id)
	return nil
}

// seqRepo derives the last issued number from what the invoice store holds,
// the way the SQL implementation does.
type seqRepo struct {
	repo *memRepo
}

func (s *seqRepo) LastDocumentNumber(ctx context.Context, companyID int64, kind sequence.Kind, prefix string) (string, error) {
	last := ""
	for _, inv := range s.repo.invoices {
		if inv.CompanyID == companyID && strings.HasPrefix(inv.DocumentNumber, prefix) && inv.DocumentNumber > last {
			last = inv.DocumentNumber
		}
	}
	return last, nil
}

type fakeJournal struct {
	accounts  map[string]ledger.Account
	entries   []ledger.JournalEntry
	nextID    int64
	failTypes map[ledger.TransactionType]bool
}

func newFakeJournal() *fakeJournal {
	accounts := map[string]ledger.Account{}
	for i, def := range []struct {
		code string
		name string
		typ  ledger.AccountType
	}{
		{ledger.CodeCash, "Cash", ledger.AccountTypeAsset},
		{ledger.CodeReceivables, "Accounts Receivable", ledger.AccountTypeAsset},
		{ledger.CodeInventory, "Inventory", ledger.AccountTypeAsset},
		{ledger.CodeCGSTOutput, "CGST Output", ledger.AccountTypeLiability},
		{ledger.CodeSGSTOutput, "SGST Output", ledger.AccountTypeLiability},
		{ledger.CodeIGSTOutput, "IGST Output", ledger.AccountTypeLiability},
		{ledger.CodeSales, "Sales", ledger.AccountTypeIncome},
		{ledger.CodeCOGS, "Cost of Goods Sold", ledger.AccountTypeExpense},
	} {
		accounts[def.code] = ledger.Account{ID: int64(i + 1), CompanyID: 1, Code: def.code, Name: def.name, Type: def.typ}
	}
	return &fakeJournal{accounts: accounts, failTypes: map[ledger.TransactionType]bool{}}
}

func (j *fakeJournal) Post(ctx context.Context, in ledger.PostingInput) (ledger.JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return ledger.JournalEntry{}, err
	}
	if j.failTypes[in.TransactionType] {
		return ledger.JournalEntry{}, shared.Persistencef("induced %s failure", in.TransactionType)
	}
	j.nextID++
	entry := ledger.JournalEntry{
		ID:              j.nextID,
		CompanyID:       in.CompanyID,
		EntryNumber:     j.nextID,
		EntryDate:       in.EntryDate,
		Narration:       in.Narration,
		TransactionType: in.TransactionType,
		TransactionID:   in.TransactionID,
		PostedBy:        in.PostedBy,
	}
	for _, line := range in.Lines {
		entry.Lines = append(entry.Lines, ledger.JournalLine{
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	j.entries = append(j.entries, entry)
	return entry, nil
}

func (j *fakeJournal) Unpost(ctx context.Context, entryID int64) error {
	for i, entry := range j.entries {
		if entry.ID == entryID {
			j.entries = append(j.entries[:i], j.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (j *fakeJournal) EntryByTransaction(ctx context.Context, companyID int64, txType ledger.TransactionType, txID int64) (ledger.JournalEntry, error) {
	for i := len(j.entries) - 1; i >= 0; i-- {
		entry := j.entries[i]
		if entry.CompanyID == companyID && entry.TransactionType == txType && entry.TransactionID == txID {
			return entry, nil
		}
	}
	return ledger.JournalEntry{}, shared.ErrNotFound
}

func (j *fakeJournal) EntriesByTransaction(ctx context.Context, companyID, txID int64) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	for _, entry := range j.entries {
		if entry.CompanyID == companyID && entry.TransactionID == txID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (j *fakeJournal) Account(ctx context.Context, companyID int64, code string) (ledger.Account, error) {
	acc, ok := j.accounts[code]
	if !ok {
		return ledger.Account{}, shared.ErrNotFound
	}
	return acc, nil
}

func (j *fakeJournal) AccountByID(ctx context.Context, id int64) (ledger.Account, error) {
	for _, acc := range j.accounts {
		if acc.ID == id {
			return acc, nil
		}
	}
	return ledger.Account{}, shared.ErrNotFound
}

func (j *fakeJournal) byType(txType ledger.TransactionType) []ledger.JournalEntry {
	var out []ledger.JournalEntry
	for _, entry := range j.entries {
		if entry.TransactionType == txType {
			out = append(out, entry)
		}
	}
	return out
}

type fakeAudit struct {
	entries []auditlog.Entry
	err     error
}

func (a *fakeAudit) Append(ctx context.Context, invoiceID, actorID int64, change auditlog.ChangeType, payload map[string]any) (auditlog.Entry, error) {
	if a.err != nil {
		return auditlog.Entry{}, a.err
	}
	entry := auditlog.Entry{
		ID:         int64(len(a.entries) + 1),
		InvoiceID:  invoiceID,
		ActorID:    actorID,
		ChangeType: change,
		Payload:    payload,
	}
	a.entries = append(a.entries, entry)
	return entry, nil
}

// ---- harness ----

var t0 = time.Date(2025, time.April, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	svc     *Service
	repo    *memRepo
	journal *fakeJournal
	audit   *fakeAudit
	clock   *time.Time
}

func newHarness() *harness {
	repo := newMemRepo()
	journal := newFakeJournal()
	audit := &fakeAudit{}
	clock := t0
	directory := struct {
		masterdata.CustomerDirectory
		masterdata.DispatchDirectory
	}{
		CustomerDirectory: customerMap{
			1: {ID: 1, Name: "Acme Traders", State: "Maharashtra", GSTIN: "27AACCA1234F1Z5"},
			2: {ID: 2, Name: "Deccan Mills", State: "Karnataka", GSTIN: "29AADCD9876K1Z2"},
		},
		DispatchDirectory: dispatchMap{
			9: {ID: 9, Reference: "DSP-0009", Warehouse: "Bhiwandi", CostAmount: d("800")},
		},
	}

	svc := NewService(
		repo,
		directory, directory,
		journal,
		sequence.NewGenerator(&seqRepo{repo: repo}),
		audit,
		shared.NewPolicyAuthorizer(),
		slog.Default(),
		"Maharashtra",
	)
	h := &harness{svc: svc, repo: repo, journal: journal, audit: audit, clock: &clock}
	svc.WithNow(func() time.Time { return *h.clock })
	return h
}

func (h *harness) advance(delta time.Duration) {
	*h.clock = h.clock.Add(delta)
}

type customerMap map[int64]masterdata.CustomerSummary

func (m customerMap) GetCustomer(ctx context.Context, id int64) (masterdata.CustomerSummary, error) {
	c, ok := m[id]
	if !ok {
		return masterdata.CustomerSummary{}, shared.ErrNotFound
	}
	return c, nil
}

type dispatchMap map[int64]masterdata.DispatchSummary

func (m dispatchMap) GetDispatch(ctx context.Context, id int64) (masterdata.DispatchSummary, error) {
	s, ok := m[id]
	if !ok {
		return masterdata.DispatchSummary{}, shared.ErrNotFound
	}
	return s, nil
}

func actorCtx() context.Context {
	return shared.ContextWithActor(context.Background(), shared.Actor{ID: 42, Name: "asha"})
}

func mixedCartRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		CompanyID:   1,
		CustomerID:  1,
		InvoiceDate: t0,
		DueDate:     t0.AddDate(0, 0, 30),
		Items: []CreateItemRequest{
			{ProductID: 11, Description: "Item A", Quantity: d("10"), UnitRate: d("100"), CGSTRate: d("9"), SGSTRate: d("9")},
			{ProductID: 12, Description: "Item B", Quantity: d("5"), UnitRate: d("200"), IGSTRate: d("18")},
		},
	}
}

// ---- tests ----

func TestCreateFinalizesInstantly(t *testing.T) {
	h := newHarness()

	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	require.Equal(t, "INV-2025-0001", inv.DocumentNumber)
	require.Equal(t, StatusFinalized, inv.Status)
	require.Equal(t, PaymentUnpaid, inv.PaymentStatus)
	require.True(t, inv.Subtotal.Equal(d("2000")))
	require.True(t, inv.GSTAmount.Equal(d("360")))
	require.True(t, inv.TotalAmount.Equal(d("2360")))
	require.True(t, inv.BalanceDue.Equal(d("2360")))
	require.Equal(t, int64(42), inv.FinalizedBy)
	require.Len(t, inv.Items, 2)

	entries := h.journal.byType(ledger.TransactionInvoice)
	require.Len(t, entries, 1)
	entry := entries[0]
	require.Len(t, entry.Lines, 5)
	require.True(t, entry.Lines[0].Debit.Equal(d("2360")), "receivables leg")
	require.True(t, entry.Lines[1].Credit.Equal(d("2000")), "sales leg")
	require.True(t, entry.Lines[2].Credit.Equal(d("90")), "cgst leg")
	require.True(t, entry.Lines[3].Credit.Equal(d("90")), "sgst leg")
	require.True(t, entry.Lines[4].Credit.Equal(d("180")), "igst leg")

	require.Len(t, h.audit.entries, 1)
	require.Equal(t, auditlog.ChangeCreated, h.audit.entries[0].ChangeType)
	require.Equal(t, inv.ID, h.audit.entries[0].InvoiceID)
}

func TestCreateNumbersAreSequential(t *testing.T) {
	h := newHarness()

	first, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)
	second, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	require.Equal(t, "INV-2025-0001", first.DocumentNumber)
	require.Equal(t, "INV-2025-0002", second.DocumentNumber)
}

func TestCreateRetriesOnDuplicateNumber(t *testing.T) {
	h := newHarness()
	h.repo.duplicateFailures = 1

	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)
	require.Equal(t, "INV-2025-0001", inv.DocumentNumber)
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	h := newHarness()
	h.repo.duplicateFailures = sequence.MaxAttempts

	_, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.ErrorIs(t, err, shared.ErrPersistence)
	require.Empty(t, h.repo.invoices)
}

func TestCreatePostsCOGSWhenDispatched(t *testing.T) {
	h := newHarness()
	req := mixedCartRequest()
	dispatchID := int64(9)
	req.DispatchID = &dispatchID

	_, err := h.svc.Create(actorCtx(), req)
	require.NoError(t, err)

	cogs := h.journal.byType(ledger.TransactionCOGS)
	require.Len(t, cogs, 1)
	require.Len(t, cogs[0].Lines, 2)
	require.True(t, cogs[0].Lines[0].Debit.Equal(d("800")))
	require.True(t, cogs[0].Lines[1].Credit.Equal(d("800")))
}

func TestCreateToleratesCOGSFailure(t *testing.T) {
	h := newHarness()
	h.journal.failTypes[ledger.TransactionCOGS] = true
	req := mixedCartRequest()
	dispatchID := int64(9)
	req.DispatchID = &dispatchID

	inv, err := h.svc.Create(actorCtx(), req)
	require.NoError(t, err, "cogs failure must not fail the invoice")
	require.Len(t, h.repo.invoices, 1)
	require.Len(t, h.journal.byType(ledger.TransactionInvoice), 1)
	require.Equal(t, StatusFinalized, inv.Status)
}

func TestCreateToleratesAuditFailure(t *testing.T) {
	h := newHarness()
	h.audit.err = shared.Persistencef("induced audit failure")

	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err, "audit failure must not fail the invoice")
	require.Len(t, h.repo.invoices, 1)
	require.Len(t, h.journal.byType(ledger.TransactionInvoice), 1)
	require.Equal(t, StatusFinalized, inv.Status)
	require.Empty(t, h.audit.entries)
}

func TestCreateJournalFailureUnwindsEverything(t *testing.T) {
	h := newHarness()
	h.journal.failTypes[ledger.TransactionInvoice] = true

	_, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.ErrorIs(t, err, shared.ErrPersistence)
	require.Empty(t, h.repo.invoices, "invoice must be compensated away")
	require.Empty(t, h.repo.items)
	require.Empty(t, h.audit.entries)
}

func TestCreateRejectsMixedRegimeLine(t *testing.T) {
	h := newHarness()
	req := mixedCartRequest()
	req.Items[0].IGSTRate = d("18") // already carries CGST+SGST

	_, err := h.svc.Create(actorCtx(), req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRequiresActor(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Create(context.Background(), mixedCartRequest())
	require.ErrorIs(t, err, shared.ErrAuthentication)
}

func TestCreateInterStateByPlaceOfSupply(t *testing.T) {
	h := newHarness()
	req := CreateInvoiceRequest{
		CompanyID:   1,
		CustomerID:  2, // Karnataka, seller in Maharashtra
		InvoiceDate: t0,
		DueDate:     t0.AddDate(0, 0, 15),
		Items: []CreateItemRequest{
			{ProductID: 21, Quantity: d("1"), UnitRate: d("1000"), GSTRate: d("18")},
		},
	}
	inv, err := h.svc.Create(actorCtx(), req)
	require.NoError(t, err)
	require.True(t, inv.Items[0].IGSTAmount.Equal(d("180")))
	require.True(t, inv.Items[0].CGSTAmount.IsZero())
}

func editRequest() EditInvoiceRequest {
	return EditInvoiceRequest{
		Items: []CreateItemRequest{
			{ProductID: 11, Description: "Item A", Quantity: d("4"), UnitRate: d("100"), CGSTRate: d("9"), SGSTRate: d("9")},
		},
	}
}

func TestEditWithinWindow(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	h.advance(23*time.Hour + 59*time.Minute)
	updated, err := h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.NoError(t, err)

	require.Equal(t, StatusEdited, updated.Status)
	require.True(t, updated.Subtotal.Equal(d("400")))
	require.True(t, updated.TotalAmount.Equal(d("472")))
	require.NotNil(t, updated.EditedAt)
	require.NotNil(t, updated.EditedBy)
	require.Equal(t, int64(42), *updated.EditedBy)

	// Reversal of the standing entry plus a fresh posting.
	require.Len(t, h.journal.byType(ledger.TransactionAdjustment), 1)
	require.Len(t, h.journal.byType(ledger.TransactionInvoice), 2)

	require.Len(t, h.audit.entries, 2)
	require.Equal(t, auditlog.ChangeEdited, h.audit.entries[1].ChangeType)
}

func TestEditWindowClosed(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	h.advance(24*time.Hour + time.Minute)
	_, err = h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestEditExactlyAtWindowRejected(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	h.advance(EditWindow)
	_, err = h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestEditRejectedOncePaid(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	_, err = h.svc.RecordPayment(actorCtx(), inv.ID, RecordPaymentRequest{Amount: d("500")})
	require.NoError(t, err)

	_, err = h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestReEditAllowedWithinWindow(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	h.advance(time.Hour)
	_, err = h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.NoError(t, err)

	h.advance(time.Hour)
	again, err := h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.NoError(t, err)
	require.Equal(t, StatusEdited, again.Status)
}

func TestEditJournalFailureRestoresInvoice(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	h.journal.failTypes[ledger.TransactionAdjustment] = true
	h.advance(time.Hour)
	_, err = h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.ErrorIs(t, err, shared.ErrPersistence)

	restored, err := h.svc.Get(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.True(t, restored.TotalAmount.Equal(d("2360")), "totals must be restored")
	require.Equal(t, StatusFinalized, restored.Status)
	require.Len(t, restored.Items, 2)
}

func TestCreditNoteReversesInvoice(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	h.advance(48 * time.Hour)
	cn, err := h.svc.Credit(actorCtx(), inv.ID, "goods returned")
	require.NoError(t, err)

	require.Equal(t, "CN-2025-0001", cn.DocumentNumber)
	require.True(t, cn.IsCreditNote)
	require.NotNil(t, cn.CreditNoteFor)
	require.Equal(t, inv.ID, *cn.CreditNoteFor)
	require.True(t, cn.TotalAmount.Equal(d("-2360")))
	require.True(t, cn.Subtotal.Equal(d("-2000")))
	require.True(t, cn.BalanceDue.IsZero(), "credit notes are self-settling")
	require.Equal(t, PaymentPaid, cn.PaymentStatus)
	require.Len(t, cn.Items, 2)
	require.True(t, cn.Items[0].TaxableAmount.Equal(d("-1000")))
	require.True(t, cn.Items[0].Quantity.Equal(d("-10")), "quantities are negated")
	require.True(t, cn.Items[0].UnitRate.Equal(d("100")), "rates stay positive")

	original, err := h.svc.Get(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCredited, original.Status)

	// The reversal mirrors the sale entry exactly.
	reversals := h.journal.byType(ledger.TransactionCreditNote)
	require.Len(t, reversals, 1)
	sale := h.journal.byType(ledger.TransactionInvoice)[0]
	require.Len(t, reversals[0].Lines, len(sale.Lines))
	for i, line := range reversals[0].Lines {
		require.True(t, line.Debit.Equal(sale.Lines[i].Credit), "line %d debit", i)
		require.True(t, line.Credit.Equal(sale.Lines[i].Debit), "line %d credit", i)
	}

	last := h.audit.entries[len(h.audit.entries)-1]
	require.Equal(t, auditlog.ChangeCredited, last.ChangeType)
	require.Equal(t, inv.ID, last.InvoiceID)
}

func TestCreditNoteIsTerminal(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)
	cn, err := h.svc.Credit(actorCtx(), inv.ID, "damaged")
	require.NoError(t, err)

	_, err = h.svc.Credit(actorCtx(), cn.ID, "again")
	require.ErrorIs(t, err, shared.ErrBusinessRule)

	_, err = h.svc.Edit(actorCtx(), cn.ID, editRequest())
	require.ErrorIs(t, err, shared.ErrBusinessRule)

	_, err = h.svc.RecordPayment(actorCtx(), cn.ID, RecordPaymentRequest{Amount: d("100")})
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestCreditNoteOnlyOnce(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)
	_, err = h.svc.Credit(actorCtx(), inv.ID, "first")
	require.NoError(t, err)

	_, err = h.svc.Credit(actorCtx(), inv.ID, "second")
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestCreditNoteJournalFailureLeavesOriginal(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	h.journal.failTypes[ledger.TransactionCreditNote] = true
	_, err = h.svc.Credit(actorCtx(), inv.ID, "returned")
	require.ErrorIs(t, err, shared.ErrPersistence)

	original, err := h.svc.Get(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFinalized, original.Status, "original must stay untouched")
	require.Len(t, h.repo.invoices, 1, "failed credit note must be compensated away")
}

func TestRecordPaymentLifecycle(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	partial, err := h.svc.RecordPayment(actorCtx(), inv.ID, RecordPaymentRequest{Amount: d("1000"), Method: "NEFT"})
	require.NoError(t, err)
	require.Equal(t, PaymentPartial, partial.PaymentStatus)
	require.True(t, partial.BalanceDue.Equal(d("1360")))

	full, err := h.svc.RecordPayment(actorCtx(), inv.ID, RecordPaymentRequest{Amount: d("1360")})
	require.NoError(t, err)
	require.Equal(t, PaymentPaid, full.PaymentStatus)
	require.True(t, full.BalanceDue.IsZero())

	payments := h.journal.byType(ledger.TransactionPayment)
	require.Len(t, payments, 2)
	require.True(t, payments[0].Lines[0].Debit.Equal(d("1000")), "cash leg")
	require.True(t, payments[0].Lines[1].Credit.Equal(d("1000")), "receivables leg")
}

func TestRecordPaymentOverpayRejected(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	_, err = h.svc.RecordPayment(actorCtx(), inv.ID, RecordPaymentRequest{Amount: d("5000")})
	require.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestRecordPaymentJournalFailureReverts(t *testing.T) {
	h := newHarness()
	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	h.journal.failTypes[ledger.TransactionPayment] = true
	_, err = h.svc.RecordPayment(actorCtx(), inv.ID, RecordPaymentRequest{Amount: d("1000")})
	require.ErrorIs(t, err, shared.ErrPersistence)

	restored, err := h.svc.Get(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, PaymentUnpaid, restored.PaymentStatus)
	require.True(t, restored.BalanceDue.Equal(d("2360")))
}
