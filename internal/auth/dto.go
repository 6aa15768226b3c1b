package auth

import (
	"strings"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login
// requests. Login is by email alone.
type LoginDTO struct {
	Email string `json:"email" validate:"required,contains=@"`
}

func (d *LoginDTO) Normalize() {
	d.Email = strings.TrimSpace(d.Email)
}

func (d LoginDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}
