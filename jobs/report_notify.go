package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
)

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay. An empty host
// disables delivery, the job then only logs.
type SMTPMailer struct {
	Host string
	Port int
	From string
}

// Send delivers one message. No retries here, asynq redelivers the task.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	if m == nil || m.Host == "" {
		return nil
	}
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	return smtp.SendMail(addr, nil, m.From, []string{to}, []byte(msg))
}

// ReportStatusJob emails stakeholders when a report changes status.
type ReportStatusJob struct {
	Mailer Mailer
	Logger *slog.Logger
}

// NewReportStatusJob wires dependencies for the notify handler.
func NewReportStatusJob(mailer Mailer, logger *slog.Logger) *ReportStatusJob {
	return &ReportStatusJob{Mailer: mailer, Logger: logger}
}

// Handle processes TaskReportStatusNotify tasks.
func (j *ReportStatusJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReportStatusPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger().With(
		slog.Int64("school_id", payload.SchoolID),
		slog.String("category", payload.Category),
		slog.String("status", payload.Status),
	)
	logger.Info("report status change")

	if payload.Recipient == "" {
		return nil
	}
	subject := fmt.Sprintf("Liquidation report %s %d-%02d: %s",
		payload.Category, payload.Year, int(payload.Month), payload.Status)
	body := fmt.Sprintf("The %s report for %s %d moved from %s to %s.",
		payload.Category, payload.Month, payload.Year, payload.Previous, payload.Status)
	if payload.Comment != "" {
		body += "\n\nComment: " + payload.Comment
	}
	if err := j.Mailer.Send(ctx, payload.Recipient, subject, body); err != nil {
		logger.Error("send status mail", slog.Any("error", err))
		return err
	}
	return nil
}

func (j *ReportStatusJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportStatusNotify))
	}
	return slog.Default().With(slog.String("job", TaskReportStatusNotify))
}
