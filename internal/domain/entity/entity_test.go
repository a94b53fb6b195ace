package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-workflow/internal/domain/workflow"
)

func TestExpense_Reopen(t *testing.T) {
	rejected := &Expense{Status: workflow.StateRejected, RejectionReason: "missing receipt"}
	assert.True(t, rejected.Reopen())
	assert.Equal(t, workflow.StateDraft, rejected.Status)
	assert.Empty(t, rejected.RejectionReason)

	for _, s := range []workflow.State{workflow.StateDraft, workflow.StateSubmitted, workflow.StateApproved, workflow.StateReimbursed} {
		e := &Expense{Status: s}
		assert.False(t, e.Reopen(), "status %s", s)
		assert.Equal(t, s, e.Status)
	}
}

func TestExpense_Clone(t *testing.T) {
	now := time.Now()
	orig := &Expense{ID: "e1", SubmittedAt: &now, Version: 3}

	c := orig.Clone()
	c.Version = 4
	*c.SubmittedAt = now.Add(time.Hour)

	assert.Equal(t, int64(3), orig.Version)
	assert.Equal(t, now, *orig.SubmittedAt)
}

func TestExpense_IsOwnedBy(t *testing.T) {
	e := &Expense{UserID: "u1"}
	assert.True(t, e.IsOwnedBy("u1"))
	assert.False(t, e.IsOwnedBy("u2"))
	assert.False(t, (&Expense{}).IsOwnedBy(""))
}

func TestParseApprovalAction(t *testing.T) {
	for _, s := range []string{"SUBMITTED", "APPROVED", "REJECTED", "REIMBURSED"} {
		a, err := ParseApprovalAction(s)
		require.NoError(t, err)
		assert.Equal(t, s, a.String())
	}

	_, err := ParseApprovalAction("DELETED")
	assert.Error(t, err)
}

func TestRole(t *testing.T) {
	r, err := ParseRole("FINANCE")
	require.NoError(t, err)
	assert.Equal(t, RoleFinance, r)
	assert.True(t, r.In(RoleManager, RoleFinance))
	assert.False(t, r.In(RoleAdmin))

	_, err = ParseRole("ROOT")
	assert.Error(t, err)
}

func TestPrincipal_HasRole(t *testing.T) {
	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasRole(RoleAdmin))

	p := &Principal{Role: RoleManager}
	assert.True(t, p.HasRole(RoleManager, RoleAdmin))
	assert.False(t, p.HasRole(RoleFinance))
}

func TestUser_Principal(t *testing.T) {
	u := &User{ID: "u1", TenantID: "t1", Name: "Ada", Department: "R&D", Role: RoleAdmin, Active: true}
	p := u.Principal()
	assert.Equal(t, &Principal{UserID: "u1", TenantID: "t1", Name: "Ada", Department: "R&D", Role: RoleAdmin, Active: true}, p)
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	require.Len(t, cats, DefaultCategoryCount)

	seen := map[string]bool{}
	for _, c := range cats {
		assert.NotEmpty(t, c.Icon)
		assert.False(t, seen[c.Name], "duplicate %s", c.Name)
		seen[c.Name] = true
	}
}
