package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusReview, true},
		{StatusReview, StatusApproved, true},
		{StatusReview, StatusDraft, true},
		{StatusApproved, StatusReceived, true},
		{StatusReceived, StatusArchived, true},

		{StatusDraft, StatusApproved, false},
		{StatusDraft, StatusArchived, false},
		{StatusApproved, StatusDraft, false},
		{StatusApproved, StatusReview, false},
		{StatusReceived, StatusDraft, false},
		{StatusReceived, StatusReview, false},
		{StatusArchived, StatusDraft, false},
		{StatusArchived, StatusReceived, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.allowed, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestStatusEditableOnlyInDraft(t *testing.T) {
	assert.True(t, StatusDraft.Editable())
	for _, s := range []Status{StatusReview, StatusApproved, StatusReceived, StatusArchived} {
		assert.Falsef(t, s.Editable(), "status %s", s)
	}
}

func TestCategoryFlags(t *testing.T) {
	assert.True(t, CategoryOperatingExpenses.QuantityBased())
	assert.True(t, CategoryAdministrativeExpenses.QuantityBased())
	assert.True(t, CategoryHEFund.QuantityBased())
	assert.False(t, CategoryClinicFund.QuantityBased())
	assert.False(t, CategorySupplementaryFeeding.QuantityBased())
	assert.False(t, CategoryRevolvingFund.QuantityBased())

	assert.True(t, CategoryClinicFund.Valid())
	assert.False(t, Category("petty_cash").Valid())
}

func TestEntryTotalByCategory(t *testing.T) {
	e := Entry{Quantity: 3, UnitPrice: 25, Amount: 500}
	assert.Equal(t, 75.0, e.Total(CategoryOperatingExpenses))
	assert.Equal(t, 500.0, e.Total(CategoryClinicFund))
}

func TestReportTotalAmount(t *testing.T) {
	rep := Report{
		Category: CategoryClinicFund,
		Entries: []Entry{
			{Amount: 120.50},
			{Amount: 79.50},
		},
	}
	assert.Equal(t, 200.0, rep.TotalAmount())
}
