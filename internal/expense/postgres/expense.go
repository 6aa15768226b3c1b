package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// ExpenseRepository implements expense.Repository and expense.Aggregator
// using GORM, with the aggregate query issued through sqlx on the same pool.
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) List(ctx context.Context) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &exp, nil
}

func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	return r.db.WithContext(ctx).Create(exp).Error
}

// UpdatePayment writes status and both payment columns in one statement.
func (r *ExpenseRepository) UpdatePayment(ctx context.Context, id string, patch expenseDatamodel.PaymentPatch) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  patch.Status,
			"paid_by": patch.PaidBy,
			"paid_at": patch.PaidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ExpenseRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Where("category = ?", category).
		Count(&count).Error
	return count, err
}

// Aggregate totals expenses per (category, status) inside rng.
func (r *ExpenseRepository) Aggregate(ctx context.Context, rng expenseDatamodel.DateRange) ([]expenseDatamodel.Aggregate, error) {
	dbx, err := r.sqlx()
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []interface{}
	)
	if rng.From != "" {
		where = append(where, "date >= ?")
		args = append(args, rng.From)
	}
	if rng.To != "" {
		where = append(where, "date <= ?")
		args = append(args, rng.To)
	}

	query := "SELECT category, status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount FROM expenses"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY category, status ORDER BY category, status"

	var rows []expenseDatamodel.Aggregate
	if err := dbx.SelectContext(ctx, &rows, dbx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("aggregate expenses: %w", err)
	}
	return rows, nil
}

func (r *ExpenseRepository) sqlx() (*sqlx.DB, error) {
	sqlDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	driver := "sqlite3"
	if r.db.Dialector.Name() == "postgres" {
		driver = "pgx"
	}
	return sqlx.NewDb(sqlDB, driver), nil
}
