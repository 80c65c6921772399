package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// June 2025: the 2nd is a Monday, the 7th a Saturday, the 8th a Sunday.
const (
	testYear  = 2025
	testMonth = time.June
)

func validQuantityEntry() Entry {
	return Entry{
		Date:        day(testYear, testMonth, 2),
		Particulars: "Rice 25kg",
		Quantity:    2,
		Unit:        "sack",
		UnitPrice:   1200,
	}
}

func validAmountEntry() Entry {
	return Entry{
		Date:        day(testYear, testMonth, 2),
		Particulars: "First aid supplies",
		Amount:      350,
	}
}

func TestValidateEntryQuantityBased(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateEntry(validQuantityEntry(), testYear, testMonth, CategoryOperatingExpenses, 0))
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		e := validQuantityEntry()
		e.Quantity = 0
		err := ValidateEntry(e, testYear, testMonth, CategoryOperatingExpenses, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quantity")
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		e := validQuantityEntry()
		e.Quantity = -1
		assert.Error(t, ValidateEntry(e, testYear, testMonth, CategoryOperatingExpenses, 0))
	})

	t.Run("empty unit rejected", func(t *testing.T) {
		e := validQuantityEntry()
		e.Unit = "  "
		err := ValidateEntry(e, testYear, testMonth, CategoryOperatingExpenses, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unit")
	})

	t.Run("amount forbidden", func(t *testing.T) {
		e := validQuantityEntry()
		e.Amount = 10
		assert.Error(t, ValidateEntry(e, testYear, testMonth, CategoryOperatingExpenses, 0))
	})
}

func TestValidateEntryAmountOnly(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateEntry(validAmountEntry(), testYear, testMonth, CategoryClinicFund, 0))
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		e := validAmountEntry()
		e.Amount = 0
		assert.Error(t, ValidateEntry(e, testYear, testMonth, CategoryClinicFund, 0))
	})

	t.Run("quantity fields forbidden", func(t *testing.T) {
		e := validAmountEntry()
		e.Quantity = 1
		e.Unit = "pc"
		assert.Error(t, ValidateEntry(e, testYear, testMonth, CategoryClinicFund, 0))
	})
}

func TestValidateEntryDateRules(t *testing.T) {
	t.Run("saturday rejected", func(t *testing.T) {
		e := validAmountEntry()
		e.Date = day(testYear, testMonth, 7)
		err := ValidateEntry(e, testYear, testMonth, CategoryClinicFund, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weekend")
	})

	t.Run("sunday rejected", func(t *testing.T) {
		e := validAmountEntry()
		e.Date = day(testYear, testMonth, 8)
		assert.Error(t, ValidateEntry(e, testYear, testMonth, CategoryClinicFund, 0))
	})

	t.Run("outside month rejected", func(t *testing.T) {
		e := validAmountEntry()
		e.Date = day(testYear, time.July, 1)
		err := ValidateEntry(e, testYear, testMonth, CategoryClinicFund, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside")
	})

	t.Run("empty particulars rejected", func(t *testing.T) {
		e := validAmountEntry()
		e.Particulars = " "
		assert.Error(t, ValidateEntry(e, testYear, testMonth, CategoryClinicFund, 0))
	})
}

func TestValidateForReview(t *testing.T) {
	base := func() *Report {
		return &Report{
			Year:       testYear,
			Month:      testMonth,
			Category:   CategoryClinicFund,
			PreparedBy: "u-1",
			Entries:    []Entry{validAmountEntry()},
		}
	}

	t.Run("valid report passes", func(t *testing.T) {
		assert.NoError(t, ValidateForReview(base()))
	})

	t.Run("missing preparer rejected", func(t *testing.T) {
		rep := base()
		rep.PreparedBy = ""
		assert.ErrorIs(t, ValidateForReview(rep), ErrPreparerMissing)
	})

	t.Run("no entries rejected", func(t *testing.T) {
		rep := base()
		rep.Entries = nil
		assert.ErrorIs(t, ValidateForReview(rep), ErrNoEntries)
	})

	t.Run("one bad entry rejects the report", func(t *testing.T) {
		rep := base()
		bad := validAmountEntry()
		bad.Amount = -5
		rep.Entries = append(rep.Entries, bad)
		assert.Error(t, ValidateForReview(rep))
	})
}
