package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportStatusNotify is the task type for report status emails.
	TaskReportStatusNotify = "notify:report-status"
	// TaskAnalyticsWarmup is the task type for pre-populating dashboard caches.
	TaskAnalyticsWarmup = "analytics:warmup"
)

// ReportStatusPayload describes a report lifecycle change to announce.
type ReportStatusPayload struct {
	SchoolID  int64      `json:"school_id"`
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Category  string     `json:"category"`
	Previous  string     `json:"previous"`
	Status    string     `json:"status"`
	Comment   string     `json:"comment,omitempty"`
	Recipient string     `json:"recipient,omitempty"`
}

// NewReportStatusTask constructs an Asynq task for a status change.
func NewReportStatusTask(payload ReportStatusPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportStatusNotify, data), nil
}

// AnalyticsWarmupPayload scopes a cache warmup run.
type AnalyticsWarmupPayload struct {
	Months int `json:"months,omitempty"`
}

// NewAnalyticsWarmupTask constructs an Asynq task for cache warmup.
func NewAnalyticsWarmupTask(payload AnalyticsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}
