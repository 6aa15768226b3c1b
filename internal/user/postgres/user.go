package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/payable/internal"
	userDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/user"
	"gorm.io/gorm"
)

// UserRepository implements user.RepositoryAPI on GORM. It serves both the
// postgres and the sqlite drivers.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrDuplicateEmail
	}
	return err
}
