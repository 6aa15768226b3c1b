package user

import (
	"strings"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/core/common/validation"
)

// CreateUserDTO is the payload of POST /users and of approved access requests.
type CreateUserDTO struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,contains=@"`
	Role  string `json:"role" validate:"required,oneof=viewer creator payer admin"`
}

func (dto *CreateUserDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Role = strings.TrimSpace(dto.Role)
}

func (dto CreateUserDTO) Validate() *internal.AppError {
	return validation.Struct(dto)
}
