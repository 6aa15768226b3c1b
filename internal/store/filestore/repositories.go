package filestore

import (
	"context"
	"slices"

	"github.com/frahmantamala/payable/internal"
	categoryDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/user"
	requestDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/userrequest"
)

type UserRepository struct{ s *Store }

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.s.view(ctx, func(doc *Document) error {
		users = doc.Users
		return nil
	})
	return users, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var found *userDatamodel.User
	err := r.s.view(ctx, func(doc *Document) error {
		for _, u := range doc.Users {
			if u.Email == email {
				found = u
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.s.update(ctx, func(doc *Document) (bool, error) {
		for _, existing := range doc.Users {
			if existing.Email == u.Email {
				return false, internal.ErrDuplicateEmail
			}
		}
		row := *u
		doc.Users = append(doc.Users, &row)
		return true, nil
	})
}

type RequestRepository struct{ s *Store }

// List returns requests in stored order, which is newest first.
func (r *RequestRepository) List(ctx context.Context) ([]*requestDatamodel.UserRequest, error) {
	var requests []*requestDatamodel.UserRequest
	err := r.s.view(ctx, func(doc *Document) error {
		requests = doc.UserRequests
		return nil
	})
	return requests, err
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*requestDatamodel.UserRequest, error) {
	var found *requestDatamodel.UserRequest
	err := r.s.view(ctx, func(doc *Document) error {
		if i := requestIndex(doc, id); i >= 0 {
			found = doc.UserRequests[i]
		}
		return nil
	})
	return found, err
}

func (r *RequestRepository) Create(ctx context.Context, req *requestDatamodel.UserRequest) error {
	return r.s.update(ctx, func(doc *Document) (bool, error) {
		row := *req
		doc.UserRequests = slices.Insert(doc.UserRequests, 0, &row)
		return true, nil
	})
}

func (r *RequestRepository) TransitionStatus(ctx context.Context, id, from string, t requestDatamodel.Transition) (bool, error) {
	applied := false
	err := r.s.update(ctx, func(doc *Document) (bool, error) {
		i := requestIndex(doc, id)
		if i < 0 || doc.UserRequests[i].Status != from {
			return false, nil
		}
		t.Apply(doc.UserRequests[i])
		applied = true
		return true, nil
	})
	return applied, err
}

func requestIndex(doc *Document, id string) int {
	return slices.IndexFunc(doc.UserRequests, func(r *requestDatamodel.UserRequest) bool { return r.ID == id })
}

type CategoryRepository struct{ s *Store }

func (r *CategoryRepository) List(ctx context.Context) ([]*categoryDatamodel.Category, error) {
	var categories []*categoryDatamodel.Category
	err := r.s.view(ctx, func(doc *Document) error {
		categories = make([]*categoryDatamodel.Category, len(doc.Categories))
		for i, name := range doc.Categories {
			categories[i] = &categoryDatamodel.Category{ID: int64(i + 1), Name: name}
		}
		return nil
	})
	return categories, err
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*categoryDatamodel.Category, error) {
	var found *categoryDatamodel.Category
	err := r.s.view(ctx, func(doc *Document) error {
		if i := slices.Index(doc.Categories, name); i >= 0 {
			found = &categoryDatamodel.Category{ID: int64(i + 1), Name: name}
		}
		return nil
	})
	return found, err
}

func (r *CategoryRepository) Create(ctx context.Context, c *categoryDatamodel.Category) error {
	return r.s.update(ctx, func(doc *Document) (bool, error) {
		if slices.Contains(doc.Categories, c.Name) {
			return false, internal.ErrCategoryExists
		}
		doc.Categories = append(doc.Categories, c.Name)
		return true, nil
	})
}

func (r *CategoryRepository) Delete(ctx context.Context, name string) (bool, error) {
	deleted := false
	err := r.s.update(ctx, func(doc *Document) (bool, error) {
		i := slices.Index(doc.Categories, name)
		if i < 0 {
			return false, nil
		}
		doc.Categories = slices.Delete(doc.Categories, i, i+1)
		deleted = true
		return true, nil
	})
	return deleted, err
}

type ExpenseRepository struct{ s *Store }

func (r *ExpenseRepository) List(ctx context.Context) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	err := r.s.view(ctx, func(doc *Document) error {
		expenses = doc.Expenses
		return nil
	})
	return expenses, err
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*expenseDatamodel.Expense, error) {
	var found *expenseDatamodel.Expense
	err := r.s.view(ctx, func(doc *Document) error {
		if i := expenseIndex(doc, id); i >= 0 {
			found = doc.Expenses[i]
		}
		return nil
	})
	return found, err
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expenseDatamodel.Expense) error {
	return r.s.update(ctx, func(doc *Document) (bool, error) {
		row := *e
		doc.Expenses = slices.Insert(doc.Expenses, 0, &row)
		return true, nil
	})
}

func (r *ExpenseRepository) UpdatePayment(ctx context.Context, id string, patch expenseDatamodel.PaymentPatch) (bool, error) {
	updated := false
	err := r.s.update(ctx, func(doc *Document) (bool, error) {
		i := expenseIndex(doc, id)
		if i < 0 {
			return false, nil
		}
		e := doc.Expenses[i]
		e.Status = patch.Status
		e.PaidBy = patch.PaidBy
		e.PaidAt = patch.PaidAt
		updated = true
		return true, nil
	})
	return updated, err
}

func (r *ExpenseRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	var n int64
	err := r.s.view(ctx, func(doc *Document) error {
		for _, e := range doc.Expenses {
			if e.Category == category {
				n++
			}
		}
		return nil
	})
	return n, err
}

func expenseIndex(doc *Document, id string) int {
	return slices.IndexFunc(doc.Expenses, func(e *expenseDatamodel.Expense) bool { return e.ID == id })
}
