package expense

import (
	"strings"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/core/common/validation"
)

// CreateExpenseDTO represents the request payload for creating an expense.
// Any status or payment fields sent by the client are ignored.
type CreateExpenseDTO struct {
	Description string   `json:"description" validate:"required"`
	Amount      *float64 `json:"amount" validate:"required,gt=0"`
	Category    string   `json:"category" validate:"required"`
	Date        string   `json:"date" validate:"required,isodate"`
	CreatedBy   string   `json:"createdBy"`
}

func (dto *CreateExpenseDTO) Normalize() {
	dto.Description = strings.TrimSpace(dto.Description)
	dto.Category = strings.TrimSpace(dto.Category)
	dto.Date = strings.TrimSpace(dto.Date)
}

func (dto CreateExpenseDTO) Validate() *internal.AppError {
	return validation.Struct(dto)
}

// UpdateStatusDTO is the payload of PATCH /expenses/{id}/status.
type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=paid not_paid"`
	UserID string `json:"userId"`
}

func (dto UpdateStatusDTO) Validate() *internal.AppError {
	return validation.Struct(dto)
}
