// Package report implements the liquidation report lifecycle: itemised
// monthly expense reports moving through draft, review, approval and the
// administrative receive/archive stages.
package report

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status enumerates report lifecycle stages.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
	StatusReceived Status = "received"
	StatusArchived Status = "archived"
)

// transitions lists the legal forward edges of the lifecycle. Rejection is
// the review -> draft edge; there is no separate rejected status, the
// reviewer's reason is retained in the approval log instead.
var transitions = map[Status][]Status{
	StatusDraft:    {StatusReview},
	StatusReview:   {StatusApproved, StatusDraft},
	StatusApproved: {StatusReceived},
	StatusReceived: {StatusArchived},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusApproved, StatusReceived, StatusArchived:
		return true
	}
	return false
}

// CanTransition reports whether the edge s -> next exists in the lifecycle.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Editable reports whether report contents may still be modified.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// Category enumerates the fixed expense classifications. The flag returned
// by QuantityBased determines which entry fields are required.
type Category string

const (
	CategoryOperatingExpenses      Category = "operating_expenses"
	CategoryAdministrativeExpenses Category = "administrative_expenses"
	CategoryClinicFund             Category = "clinic_fund"
	CategorySupplementaryFeeding   Category = "supplementary_feeding_fund"
	CategoryHEFund                 Category = "he_fund"
	CategoryFacultyStudentDevFund  Category = "faculty_student_dev_fund"
	CategorySchoolOperationFund    Category = "school_operation_fund"
	CategoryRevolvingFund          Category = "revolving_fund"
)

// Categories lists every known category.
func Categories() []Category {
	return []Category{
		CategoryOperatingExpenses,
		CategoryAdministrativeExpenses,
		CategoryClinicFund,
		CategorySupplementaryFeeding,
		CategoryHEFund,
		CategoryFacultyStudentDevFund,
		CategorySchoolOperationFund,
		CategoryRevolvingFund,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// QuantityBased reports whether entries in this category itemise
// quantity, unit and unit price instead of a flat amount.
func (c Category) QuantityBased() bool {
	switch c {
	case CategoryOperatingExpenses, CategoryAdministrativeExpenses, CategoryHEFund:
		return true
	}
	return false
}

// Key identifies exactly one report: one per school, period and category.
type Key struct {
	SchoolID int64
	Year     int
	Month    time.Month
	Category Category
}

// Entry is one line item of a liquidation report.
type Entry struct {
	Date        time.Time `json:"date"`
	Receipt     string    `json:"receipt,omitempty"`
	Particulars string    `json:"particulars"`
	Quantity    float64   `json:"quantity,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	UnitPrice   float64   `json:"unit_price,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
}

// Total returns the entry's monetary value, derived from whichever field
// the category treats as authoritative.
func (e Entry) Total(c Category) float64 {
	if c.QuantityBased() {
		return e.Quantity * e.UnitPrice
	}
	return e.Amount
}

// Attachment references a stored blob supporting the report.
type Attachment struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ObjectKey string    `json:"object_key"`
}

// Report is a monthly liquidation report for one school and category.
type Report struct {
	ID       uuid.UUID `json:"id"`
	SchoolID int64     `json:"school_id"`
	Year     int       `json:"year"`
	Month    time.Month `json:"month"`
	Category Category  `json:"category"`
	Status   Status    `json:"status"`
	Memo     string    `json:"memo,omitempty"`

	PreparedBy      string `json:"prepared_by,omitempty"`
	NotedBy         string `json:"noted_by,omitempty"`
	TeacherInCharge string `json:"teacher_in_charge,omitempty"`

	// NotedSignature is the approver's signature object key snapshotted at
	// approval time, so later signature changes do not alter the record.
	NotedSignature string `json:"noted_signature,omitempty"`

	Entries     []Entry      `json:"entries"`
	Attachments []Attachment `json:"attachments,omitempty"`

	DateCreated  time.Time  `json:"date_created"`
	DateApproved *time.Time `json:"date_approved,omitempty"`
	DateReceived *time.Time `json:"date_received,omitempty"`
	LastModified time.Time  `json:"last_modified"`
}

// Key returns the natural identifier of the report.
func (r *Report) Key() Key {
	return Key{SchoolID: r.SchoolID, Year: r.Year, Month: r.Month, Category: r.Category}
}

// TotalAmount sums all entry totals.
func (r *Report) TotalAmount() float64 {
	var total float64
	for _, e := range r.Entries {
		total += e.Total(r.Category)
	}
	return total
}

// Sentinel errors for lifecycle and entry rules.
var (
	ErrNotFound          = errors.New("report: not found")
	ErrInvalidTransition = errors.New("report: invalid status transition")
	ErrReportLocked      = errors.New("report: not editable outside draft")
	ErrNoEntries         = errors.New("report: at least one entry required for review")
	ErrPreparerMissing   = errors.New("report: prepared-by required for review")
	ErrNotNotedBy        = errors.New("report: only the noted-by approver may approve")
	ErrPermissionDenied  = errors.New("report: caller lacks permission for this transition")
	ErrSignatureMissing  = errors.New("report: approver has no signature on file")
	ErrUnknownCategory   = errors.New("report: unknown category")
	ErrUnknownStatus     = errors.New("report: unknown status")
)
