package workflow

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

// ExpenseInput carries the owner-editable fields of an expense
type ExpenseInput struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Amount      string `json:"amount" validate:"required,amount"`
	CategoryID  string `json:"category_id" validate:"required"`
	ReceiptURL  string `json:"receipt_url" validate:"max=2048"`
	ExpenseDate string `json:"expense_date" validate:"required,datetime=2006-01-02"`
}

// expenseFields is ExpenseInput after validation and conversion
type expenseFields struct {
	title       string
	description string
	amountCents int64
	categoryID  string
	receiptURL  string
	expenseDate time.Time
}

func newValidator() *validator.Validate {
	v := utils.NewValidator()
	// Registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := entity.ParseAmount(fl.Field().String())
		return err == nil
	})
	return v
}

func (e *engineImpl) parseInput(in ExpenseInput) (*expenseFields, error) {
	in.Title = utils.SanitizeString(in.Title)
	in.Description = utils.SanitizeString(in.Description)
	in.Amount = strings.TrimSpace(in.Amount)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.ReceiptURL = strings.TrimSpace(in.ReceiptURL)
	in.ExpenseDate = strings.TrimSpace(in.ExpenseDate)

	if err := e.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, utils.ValidationMessage(err))
	}

	cents, _ := entity.ParseAmount(in.Amount)
	date, _ := time.Parse(entity.DateLayout, in.ExpenseDate)

	return &expenseFields{
		title:       in.Title,
		description: in.Description,
		amountCents: cents,
		categoryID:  in.CategoryID,
		receiptURL:  in.ReceiptURL,
		expenseDate: date,
	}, nil
}

func validateReason(reason string) (string, error) {
	reason = utils.SanitizeString(reason)
	n := utf8.RuneCountInString(reason)
	if n < entity.RejectReasonMinLen || n > entity.RejectReasonMaxLen {
		return "", fmt.Errorf("%w: reason: must be between %d and %d characters",
			apperr.ErrValidation, entity.RejectReasonMinLen, entity.RejectReasonMaxLen)
	}
	return reason, nil
}

func (f *expenseFields) applyTo(exp *entity.Expense) {
	exp.Title = f.title
	exp.Description = f.description
	exp.AmountCents = f.amountCents
	exp.CategoryID = f.categoryID
	exp.ReceiptURL = f.receiptURL
	exp.ExpenseDate = f.expenseDate
}
