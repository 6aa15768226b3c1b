package accessrequest

import (
	"strings"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/core/common/validation"
)

// SubmitRequestDTO is the payload of POST /user-requests.
type SubmitRequestDTO struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,contains=@"`
}

func (dto *SubmitRequestDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.TrimSpace(dto.Email)
}

func (dto SubmitRequestDTO) Validate() *internal.AppError {
	return validation.Struct(dto)
}

// ApproveRequestDTO is the payload of PATCH /user-requests/{id}/approve.
// An empty role means viewer.
type ApproveRequestDTO struct {
	Role       string `json:"role"`
	ApprovedBy string `json:"approvedBy"`
}
