package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opencanteen/opencanteen/internal/rbac"
	"github.com/opencanteen/opencanteen/internal/shared"
)

// approvalModule tags liquidation report rows in the approval log.
const approvalModule = "liquidation"

// ApprovalSink persists and lists approval history.
type ApprovalSink interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
	List(ctx context.Context, module string, ref uuid.UUID) ([]shared.ApprovalLog, error)
}

// UserDirectory resolves user attributes needed by lifecycle guards.
type UserDirectory interface {
	// SignatureObject returns the stored signature object key for the user,
	// or an empty string when none is on file.
	SignatureObject(ctx context.Context, userID string) (string, error)
}

// Notifier fans out report status changes to interested parties.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, rep *Report, previous Status, comment string) error
}

// Service coordinates report persistence with lifecycle rules.
type Service struct {
	repo      Repository
	approvals ApprovalSink
	users     UserDirectory
	notifier  Notifier
	logger    *slog.Logger
}

// NewService constructs a Service. notifier may be nil.
func NewService(repo Repository, approvals ApprovalSink, users UserDirectory, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, approvals: approvals, users: users, notifier: notifier, logger: logger}
}

// Get loads a report by its natural key.
func (s *Service) Get(ctx context.Context, key Key) (*Report, error) {
	if !key.Category.Valid() {
		return nil, ErrUnknownCategory
	}
	return s.repo.Get(ctx, key)
}

// UpsertInput carries the editable report fields.
type UpsertInput struct {
	Memo            string
	PreparedBy      string
	NotedBy         string
	TeacherInCharge string
	Entries         []Entry
	Attachments     []Attachment
}

// Upsert creates the report on first write and replaces its editable
// content afterwards. Content writes are only permitted in draft. Entry
// dates are checked eagerly so a bad date never displaces a stored value;
// the remaining field rules are enforced on submission.
func (s *Service) Upsert(ctx context.Context, key Key, in UpsertInput) (*Report, error) {
	if !key.Category.Valid() {
		return nil, ErrUnknownCategory
	}
	for i, e := range in.Entries {
		if err := validateEntryDate(e, key.Year, key.Month, i); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.Get(ctx, key)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil && !existing.Status.Editable() {
		return nil, ErrReportLocked
	}

	rep := &Report{
		SchoolID:        key.SchoolID,
		Year:            key.Year,
		Month:           key.Month,
		Category:        key.Category,
		Status:          StatusDraft,
		Memo:            in.Memo,
		PreparedBy:      in.PreparedBy,
		NotedBy:         in.NotedBy,
		TeacherInCharge: in.TeacherInCharge,
		Entries:         in.Entries,
		Attachments:     in.Attachments,
	}
	if existing != nil {
		rep.ID = existing.ID
		rep.Status = existing.Status
	}
	return s.repo.Upsert(ctx, rep)
}

// transitionPermission maps each target status to the permission that
// authorises moving a report there: submission needs write access,
// approval and rejection need approver access, and the receive/archive
// steps are administrative.
func transitionPermission(next Status) string {
	switch next {
	case StatusReview:
		return rbac.PermReportsWrite
	case StatusDraft, StatusApproved:
		return rbac.PermReportsApprove
	default:
		return rbac.PermReportsAdmin
	}
}

// ChangeStatus applies one lifecycle transition with its guards and
// records the action in the approval log.
func (s *Service) ChangeStatus(ctx context.Context, key Key, next Status, comment string, actor *shared.Identity) (*Report, error) {
	if !next.Valid() {
		return nil, ErrUnknownStatus
	}
	rep, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !rep.Status.CanTransition(next) {
		return nil, ErrInvalidTransition
	}
	if !actor.HasPermission(transitionPermission(next)) {
		return nil, ErrPermissionDenied
	}

	previous := rep.Status
	now := time.Now()
	var action shared.ApprovalAction

	switch next {
	case StatusReview:
		if err := ValidateForReview(rep); err != nil {
			return nil, err
		}
		action = shared.ApprovalSubmit

	case StatusApproved:
		if actor == nil || actor.UserID != rep.NotedBy {
			return nil, ErrNotNotedBy
		}
		signature, err := s.users.SignatureObject(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if signature == "" {
			return nil, ErrSignatureMissing
		}
		rep.NotedSignature = signature
		rep.DateApproved = &now
		action = shared.ApprovalApprove

	case StatusDraft:
		// Rejection: status resets, entries and memo are retained. The
		// reviewer's comment survives in the approval log.
		action = shared.ApprovalReject

	case StatusReceived:
		rep.DateReceived = &now
		action = shared.ApprovalReceive

	case StatusArchived:
		action = shared.ApprovalArchive
	}

	rep.Status = next
	if err := s.repo.Save(ctx, rep); err != nil {
		return nil, err
	}

	if s.approvals != nil && actor != nil {
		log := shared.ApprovalLog{
			Module:  approvalModule,
			RefID:   rep.ID,
			ActorID: actor.UserID,
			Action:  action,
			Note:    comment,
			At:      now,
		}
		if err := s.approvals.Record(ctx, log); err != nil {
			s.logger.Warn("record approval", slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyStatusChange(ctx, rep, previous, comment); err != nil {
			s.logger.Warn("notify status change", slog.Any("error", err))
		}
	}
	return rep, nil
}

// Approvals returns the approval history for a report.
func (s *Service) Approvals(ctx context.Context, key Key) ([]shared.ApprovalLog, error) {
	rep, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.approvals.List(ctx, approvalModule, rep.ID)
}

// ListForSchool returns all reports of a school for one year.
func (s *Service) ListForSchool(ctx context.Context, schoolID int64, year int) ([]Report, error) {
	return s.repo.ListForSchool(ctx, schoolID, year)
}

// validateEntryDate applies the update-time date rules only.
func validateEntryDate(e Entry, year int, month time.Month, index int) error {
	if e.Date.IsZero() {
		return EntryError{Index: index, Reason: "date required"}
	}
	if e.Date.Year() != year || e.Date.Month() != month {
		return EntryError{Index: index, Reason: "date outside report month"}
	}
	if wd := e.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return EntryError{Index: index, Reason: "date falls on a weekend"}
	}
	return nil
}
