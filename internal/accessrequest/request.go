package accessrequest

import (
	"sort"
	"time"

	requestDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/userrequest"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is a self-service application for an account. It leaves pending
// exactly once, to approved or rejected, and never returns.
type Request struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	RequestedAt time.Time  `json:"requestedAt"`
	Status      string     `json:"status"`
	Role        *string    `json:"role,omitempty"`
	ApprovedBy  *string    `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
}

func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// SortNewestFirst orders requests by RequestedAt, most recent first.
func SortNewestFirst(requests []*Request) {
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].RequestedAt.After(requests[j].RequestedAt)
	})
}

func ToDataModel(r *Request) *requestDatamodel.UserRequest {
	return &requestDatamodel.UserRequest{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		RequestedAt: r.RequestedAt,
		Status:      r.Status,
		Role:        r.Role,
		ApprovedBy:  r.ApprovedBy,
		ApprovedAt:  r.ApprovedAt,
	}
}

func FromDataModel(r *requestDatamodel.UserRequest) *Request {
	return &Request{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		RequestedAt: r.RequestedAt,
		Status:      r.Status,
		Role:        r.Role,
		ApprovedBy:  r.ApprovedBy,
		ApprovedAt:  r.ApprovedAt,
	}
}

func FromDataModelSlice(requests []*requestDatamodel.UserRequest) []*Request {
	result := make([]*Request, len(requests))
	for i, r := range requests {
		result[i] = FromDataModel(r)
	}
	return result
}
