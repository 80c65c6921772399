package report

import (
	"fmt"
	"strings"
	"time"
)

// EntryError describes why a single entry failed validation.
type EntryError struct {
	Index  int
	Reason string
}

func (e EntryError) Error() string {
	return fmt.Sprintf("report: entry %d: %s", e.Index, e.Reason)
}

// ValidateEntry checks one entry against the report period and category
// rules. Dates must fall inside the report month and never on a weekend;
// quantity-based categories itemise quantity/unit/unit price, the rest
// carry a flat amount and forbid the itemised fields.
func ValidateEntry(e Entry, year int, month time.Month, category Category, index int) error {
	if strings.TrimSpace(e.Particulars) == "" {
		return EntryError{Index: index, Reason: "particulars required"}
	}
	if e.Date.IsZero() {
		return EntryError{Index: index, Reason: "date required"}
	}
	if e.Date.Year() != year || e.Date.Month() != month {
		return EntryError{Index: index, Reason: "date outside report month"}
	}
	if wd := e.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return EntryError{Index: index, Reason: "date falls on a weekend"}
	}
	if category.QuantityBased() {
		if e.Quantity <= 0 {
			return EntryError{Index: index, Reason: "quantity must be greater than zero"}
		}
		if strings.TrimSpace(e.Unit) == "" {
			return EntryError{Index: index, Reason: "unit required"}
		}
		if e.UnitPrice <= 0 {
			return EntryError{Index: index, Reason: "unit price must be greater than zero"}
		}
		if e.Amount != 0 {
			return EntryError{Index: index, Reason: "amount not allowed for quantity-based category"}
		}
		return nil
	}
	if e.Amount <= 0 {
		return EntryError{Index: index, Reason: "amount must be greater than zero"}
	}
	if e.Quantity != 0 || strings.TrimSpace(e.Unit) != "" || e.UnitPrice != 0 {
		return EntryError{Index: index, Reason: "quantity fields not allowed for amount-only category"}
	}
	return nil
}

// ValidateEntries checks every entry of the report. The first failure wins.
func ValidateEntries(r *Report) error {
	for i, e := range r.Entries {
		if err := ValidateEntry(e, r.Year, r.Month, r.Category, i); err != nil {
			return err
		}
	}
	return nil
}

// ValidateForReview runs the full submission gate for the draft -> review
// transition.
func ValidateForReview(r *Report) error {
	if r.PreparedBy == "" {
		return ErrPreparerMissing
	}
	if len(r.Entries) == 0 {
		return ErrNoEntries
	}
	return ValidateEntries(r)
}
