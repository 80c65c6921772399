package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/opencanteen/opencanteen/internal/report"
)

// EmailDirectory resolves a user's mail address.
type EmailDirectory interface {
	EmailByUserID(ctx context.Context, userID string) (string, error)
}

type statusEnqueuer interface {
	EnqueueReportStatus(ctx context.Context, payload ReportStatusPayload) (*asynq.TaskInfo, error)
}

// StatusNotifier pushes report lifecycle changes onto the job queue so
// mail delivery never blocks the request path.
type StatusNotifier struct {
	client    statusEnqueuer
	directory EmailDirectory
	fallback  string
}

// NewStatusNotifier builds a notifier. The mail goes to the report's
// preparer; fallback is the division office inbox used when no preparer
// address can be resolved, may be empty.
func NewStatusNotifier(client *Client, directory EmailDirectory, fallback string) *StatusNotifier {
	n := &StatusNotifier{directory: directory, fallback: fallback}
	if client != nil {
		n.client = client
	}
	return n
}

// NotifyStatusChange enqueues a notification task addressed to the
// preparer of the report.
func (n *StatusNotifier) NotifyStatusChange(ctx context.Context, rep *report.Report, previous report.Status, comment string) error {
	if n == nil || n.client == nil {
		return nil
	}
	recipient := n.fallback
	if n.directory != nil && rep.PreparedBy != "" {
		// An unresolvable preparer still gets the change announced on
		// the fallback inbox.
		if email, err := n.directory.EmailByUserID(ctx, rep.PreparedBy); err == nil && email != "" {
			recipient = email
		}
	}
	_, err := n.client.EnqueueReportStatus(ctx, ReportStatusPayload{
		SchoolID:  rep.SchoolID,
		Year:      rep.Year,
		Month:     rep.Month,
		Category:  string(rep.Category),
		Previous:  string(previous),
		Status:    string(rep.Status),
		Comment:   comment,
		Recipient: recipient,
	})
	return err
}
