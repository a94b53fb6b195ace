package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/application/workflow"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{
		deps:   deps,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type departmentRequest struct {
	Department string `json:"department"`
}

type inviteCodeResponse struct {
	InviteCode string `json:"invite_code"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}

	if h.deps.Ready != nil && !h.deps.Ready() {
		resp.Status = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListTenants handles GET /api/auth/tenants
func (h *Handlers) ListTenants(c *gin.Context) {
	tenants, err := h.deps.Tenants.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tenants)
}

// ListMyExpenses handles GET /api/expenses
func (h *Handlers) ListMyExpenses(c *gin.Context) {
	views, err := h.deps.Expenses.ListMine(c.Request.Context(), principalFrom(c))
	h.respondList(c, views, err)
}

// ListPendingApprovals handles GET /api/expenses/pending
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	views, err := h.deps.Expenses.ListPendingApprovals(c.Request.Context(), principalFrom(c))
	h.respondList(c, views, err)
}

// ListAwaitingReimbursement handles GET /api/expenses/approved
func (h *Handlers) ListAwaitingReimbursement(c *gin.Context) {
	views, err := h.deps.Expenses.ListAwaitingReimbursement(c.Request.Context(), principalFrom(c))
	h.respondList(c, views, err)
}

// ListApprovalHistory handles GET /api/expenses/approval-history
func (h *Handlers) ListApprovalHistory(c *gin.Context) {
	views, err := h.deps.Expenses.ListApprovalHistory(c.Request.Context(), principalFrom(c))
	h.respondList(c, views, err)
}

func (h *Handlers) respondList(c *gin.Context, views []*service.ExpenseView, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if views == nil {
		views = []*service.ExpenseView{}
	}
	respondOK(c, http.StatusOK, views)
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	view, err := h.deps.Expenses.Get(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

// GetExpenseHistory handles GET /api/expenses/:id/history
func (h *Handlers) GetExpenseHistory(c *gin.Context) {
	history, err := h.deps.Expenses.History(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, history)
}

// CreateExpense handles POST /api/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	var in workflow.ExpenseInput
	if !bindJSON(c, &in) {
		return
	}

	p := principalFrom(c)
	exp, err := h.deps.Engine.Create(c.Request.Context(), p, in)
	h.respondExpense(c, http.StatusCreated, p, exp, err)
}

// UpdateExpense handles PUT /api/expenses/:id
func (h *Handlers) UpdateExpense(c *gin.Context) {
	var in workflow.ExpenseInput
	if !bindJSON(c, &in) {
		return
	}

	p := principalFrom(c)
	exp, err := h.deps.Engine.Update(c.Request.Context(), p, c.Param("id"), in)
	h.respondExpense(c, http.StatusOK, p, exp, err)
}

// SubmitExpense handles POST /api/expenses/:id/submit
func (h *Handlers) SubmitExpense(c *gin.Context) {
	p := principalFrom(c)
	exp, err := h.deps.Engine.Submit(c.Request.Context(), p, c.Param("id"))
	h.respondExpense(c, http.StatusOK, p, exp, err)
}

// ApproveExpense handles POST /api/expenses/:id/approve
func (h *Handlers) ApproveExpense(c *gin.Context) {
	p := principalFrom(c)
	exp, err := h.deps.Engine.Approve(c.Request.Context(), p, c.Param("id"))
	h.respondExpense(c, http.StatusOK, p, exp, err)
}

// RejectExpense handles POST /api/expenses/:id/reject
func (h *Handlers) RejectExpense(c *gin.Context) {
	var req rejectRequest
	if !bindJSON(c, &req) {
		return
	}

	p := principalFrom(c)
	exp, err := h.deps.Engine.Reject(c.Request.Context(), p, c.Param("id"), req.Reason)
	h.respondExpense(c, http.StatusOK, p, exp, err)
}

// ReimburseExpense handles POST /api/expenses/:id/reimburse
func (h *Handlers) ReimburseExpense(c *gin.Context) {
	p := principalFrom(c)
	exp, err := h.deps.Engine.Reimburse(c.Request.Context(), p, c.Param("id"))
	h.respondExpense(c, http.StatusOK, p, exp, err)
}

// DeleteExpense handles DELETE /api/expenses/:id
func (h *Handlers) DeleteExpense(c *gin.Context) {
	id := c.Param("id")
	if err := h.deps.Engine.Delete(c.Request.Context(), principalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// respondExpense renders the outcome of an engine command as a view
func (h *Handlers) respondExpense(c *gin.Context, status int, p *entity.Principal, exp *entity.Expense, err error) {
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.deps.Expenses.View(c.Request.Context(), p, exp)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status, view)
}

// ListCategories handles GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.deps.Categories.ListActive(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cats)
}

// ListAllCategories handles GET /api/admin/categories
func (h *Handlers) ListAllCategories(c *gin.Context) {
	cats, err := h.deps.Categories.ListAll(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cats)
}

// CreateCategory handles POST /api/admin/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var in service.CategoryInput
	if !bindJSON(c, &in) {
		return
	}

	cat, err := h.deps.Categories.Create(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, cat)
}

// UpdateCategory handles PUT /api/admin/categories/:id
func (h *Handlers) UpdateCategory(c *gin.Context) {
	var in service.CategoryInput
	if !bindJSON(c, &in) {
		return
	}

	cat, err := h.deps.Categories.Update(c.Request.Context(), principalFrom(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cat)
}

// ToggleCategoryActive handles POST /api/admin/categories/:id/toggle-active
func (h *Handlers) ToggleCategoryActive(c *gin.Context) {
	cat, err := h.deps.Categories.ToggleActive(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cat)
}

// ListUsers handles GET /api/admin/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.deps.Users.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, users)
}

// UpdateUserRole handles PUT /api/admin/users/:id/role
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.deps.Users.UpdateRole(c.Request.Context(), principalFrom(c), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// ToggleUserActive handles POST /api/admin/users/:id/toggle-active
func (h *Handlers) ToggleUserActive(c *gin.Context) {
	user, err := h.deps.Users.ToggleActive(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// UpdateUserDepartment handles PUT /api/admin/users/:id/department
func (h *Handlers) UpdateUserDepartment(c *gin.Context) {
	var req departmentRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.deps.Users.UpdateDepartment(c.Request.Context(), principalFrom(c), c.Param("id"), req.Department)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// GetInviteCode handles GET /api/admin/tenant/invite-code
func (h *Handlers) GetInviteCode(c *gin.Context) {
	code, err := h.deps.Tenants.InviteCode(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, inviteCodeResponse{InviteCode: code})
}

// bindJSON decodes the request body, answering 400 when it is malformed
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body: %v", apperr.ErrValidation, err))
		return false
	}
	return true
}
