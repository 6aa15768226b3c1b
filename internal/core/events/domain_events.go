package events

// Change notifications published by the services after a successful write.
const (
	UserCreated = "user.created"

	UserRequestSubmitted = "user_request.submitted"
	UserRequestApproved  = "user_request.approved"
	UserRequestRejected  = "user_request.rejected"

	CategoryAdded   = "category.added"
	CategoryDeleted = "category.deleted"

	ExpenseCreated       = "expense.created"
	ExpenseStatusChanged = "expense.status_changed"
)

// ChangeEvents lists every event that signals a collection changed.
var ChangeEvents = []string{
	UserCreated,
	UserRequestSubmitted,
	UserRequestApproved,
	UserRequestRejected,
	CategoryAdded,
	CategoryDeleted,
	ExpenseCreated,
	ExpenseStatusChanged,
}
