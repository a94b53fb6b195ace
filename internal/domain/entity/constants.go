package entity

// DateLayout is the calendar-date format used for expense dates at every boundary
const DateLayout = "2006-01-02"

// Field limits shared by validation and storage
const (
	TitleMinLen          = 3
	TitleMaxLen          = 200
	DescriptionMaxLen    = 1000
	ReceiptURLMaxLen     = 2048
	RejectReasonMinLen   = 5
	RejectReasonMaxLen   = 500
	CategoryNameMaxLen   = 100
	DepartmentMaxLen     = 100
	InviteCodeDigits     = 6
	DefaultCategoryCount = 8
)
