package shared

import "context"

// Authorizer answers capability questions. Each core operation consults it
// exactly once at its entry point instead of sprinkling role checks inline.
type Authorizer interface {
	Can(ctx context.Context, actor Actor, action, resource string) bool
}

// Actions recognised by the core.
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionCredit = "credit"
	ActionPost   = "post"
	ActionRead   = "read"
	ActionPay    = "pay"
)

// Resources guarded by the core.
const (
	ResourceInvoice = "invoice"
	ResourceJournal = "journal"
	ResourceLedger  = "ledger"
	ResourceAudit   = "audit"
)

// PolicyAuthorizer grants capabilities from a static action/resource table.
// Row-level tenancy and role resolution live outside this core.
type PolicyAuthorizer struct {
	allow map[string]bool
}

// NewPolicyAuthorizer builds an authorizer from "action:resource" grants.
// An empty grant list means allow-all, which is the single-tenant default.
func NewPolicyAuthorizer(grants ...string) *PolicyAuthorizer {
	if len(grants) == 0 {
		return &PolicyAuthorizer{}
	}
	allow := make(map[string]bool, len(grants))
	for _, g := range grants {
		allow[g] = true
	}
	return &PolicyAuthorizer{allow: allow}
}

// Can reports whether the actor may perform action on resource.
func (p *PolicyAuthorizer) Can(_ context.Context, actor Actor, action, resource string) bool {
	if actor.ID == 0 {
		return false
	}
	if p.allow == nil {
		return true
	}
	return p.allow[action+":"+resource]
}
