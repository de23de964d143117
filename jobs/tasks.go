package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity re-verifies the double-entry invariant across
	// posted journal entries and account balances.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskNumberingAudit scans for duplicate or gapped document numbers.
	TaskNumberingAudit = "numbering:audit"
)

// IntegrityPayload scopes an integrity run. CompanyID zero means all
// companies.
type IntegrityPayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewLedgerIntegrityTask constructs an integrity-check task.
func NewLedgerIntegrityTask(payload IntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}

// NewNumberingAuditTask constructs a numbering-audit task.
func NewNumberingAuditTask(payload IntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNumberingAudit, data), nil
}

func decodeIntegrityPayload(t *asynq.Task) (IntegrityPayload, error) {
	var payload IntegrityPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, asynq.SkipRetry
	}
	return payload, nil
}

// EnqueueLedgerIntegrity submits an on-demand integrity run.
func (c *Client) EnqueueLedgerIntegrity(ctx context.Context, payload IntegrityPayload) (*asynq.TaskInfo, error) {
	task, err := NewLedgerIntegrityTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}
