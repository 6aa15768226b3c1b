package postgres

import (
	"context"
	"errors"

	requestDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/userrequest"
	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) List(ctx context.Context) ([]*requestDatamodel.UserRequest, error) {
	var requests []*requestDatamodel.UserRequest
	err := r.db.WithContext(ctx).Order("requested_at DESC").Find(&requests).Error
	return requests, err
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*requestDatamodel.UserRequest, error) {
	var req requestDatamodel.UserRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *requestDatamodel.UserRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// TransitionStatus is a compare-and-set on status: the UPDATE only matches
// while the row still carries from.
func (r *RequestRepository) TransitionStatus(ctx context.Context, id, from string, t requestDatamodel.Transition) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&requestDatamodel.UserRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":      t.Status,
			"role":        t.Role,
			"approved_by": t.ApprovedBy,
			"approved_at": t.ApprovedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
