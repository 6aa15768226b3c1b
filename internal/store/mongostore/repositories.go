package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/frahmantamala/payable/internal"
	categoryDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/user"
	requestDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/userrequest"
)

type UserRepository struct{ coll *mongo.Collection }

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := findAll(ctx, r.coll, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}), &users)
	return users, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if found, err := findOne(ctx, r.coll, bson.D{{Key: "email", Value: email}}, &u); !found || err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return internal.ErrDuplicateEmail
	}
	return err
}

type RequestRepository struct{ coll *mongo.Collection }

func (r *RequestRepository) List(ctx context.Context) ([]*requestDatamodel.UserRequest, error) {
	var requests []*requestDatamodel.UserRequest
	err := findAll(ctx, r.coll, bson.D{}, options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}}), &requests)
	return requests, err
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*requestDatamodel.UserRequest, error) {
	var req requestDatamodel.UserRequest
	if found, err := findOne(ctx, r.coll, bson.D{{Key: "id", Value: id}}, &req); !found || err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *requestDatamodel.UserRequest) error {
	_, err := r.coll.InsertOne(ctx, req)
	return err
}

// TransitionStatus matches on id and the expected status in one UpdateOne,
// so only one of several racing decisions can apply.
func (r *RequestRepository) TransitionStatus(ctx context.Context, id, from string, t requestDatamodel.Transition) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "id", Value: id}, {Key: "status", Value: from}},
		transitionUpdate(t))
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func transitionUpdate(t requestDatamodel.Transition) bson.D {
	return setOrUnset(bson.D{
		{Key: "status", Value: t.Status},
		{Key: "role", Value: t.Role},
		{Key: "approvedBy", Value: t.ApprovedBy},
		{Key: "approvedAt", Value: t.ApprovedAt},
	})
}

type CategoryRepository struct{ coll *mongo.Collection }

func (r *CategoryRepository) List(ctx context.Context) ([]*categoryDatamodel.Category, error) {
	var categories []*categoryDatamodel.Category
	err := findAll(ctx, r.coll, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}), &categories)
	return categories, err
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*categoryDatamodel.Category, error) {
	var c categoryDatamodel.Category
	if found, err := findOne(ctx, r.coll, bson.D{{Key: "name", Value: name}}, &c); !found || err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *categoryDatamodel.Category) error {
	_, err := r.coll.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return internal.ErrCategoryExists
	}
	return err
}

func (r *CategoryRepository) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

type ExpenseRepository struct{ coll *mongo.Collection }

func (r *ExpenseRepository) List(ctx context.Context) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	err := findAll(ctx, r.coll, bson.D{}, nil, &expenses)
	return expenses, err
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*expenseDatamodel.Expense, error) {
	var e expenseDatamodel.Expense
	if found, err := findOne(ctx, r.coll, bson.D{{Key: "id", Value: id}}, &e); !found || err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expenseDatamodel.Expense) error {
	_, err := r.coll.InsertOne(ctx, e)
	return err
}

func (r *ExpenseRepository) UpdatePayment(ctx context.Context, id string, patch expenseDatamodel.PaymentPatch) (bool, error) {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "id", Value: id}}, paymentUpdate(patch))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func paymentUpdate(patch expenseDatamodel.PaymentPatch) bson.D {
	return setOrUnset(bson.D{
		{Key: "status", Value: patch.Status},
		{Key: "paidBy", Value: patch.PaidBy},
		{Key: "paidAt", Value: patch.PaidAt},
	})
}

func (r *ExpenseRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{{Key: "category", Value: category}})
}

// Aggregate totals expenses per (category, status) inside rng.
func (r *ExpenseRepository) Aggregate(ctx context.Context, rng expenseDatamodel.DateRange) ([]expenseDatamodel.Aggregate, error) {
	cur, err := r.coll.Aggregate(ctx, aggregatePipeline(rng))
	if err != nil {
		return nil, err
	}
	var rows []expenseDatamodel.Aggregate
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func aggregatePipeline(rng expenseDatamodel.DateRange) mongo.Pipeline {
	var pipeline mongo.Pipeline

	dateFilter := bson.D{}
	if rng.From != "" {
		dateFilter = append(dateFilter, bson.E{Key: "$gte", Value: rng.From})
	}
	if rng.To != "" {
		dateFilter = append(dateFilter, bson.E{Key: "$lte", Value: rng.To})
	}
	if len(dateFilter) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "date", Value: dateFilter}}}})
	}

	return append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "category", Value: "$category"}, {Key: "status", Value: "$status"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: "$_id.category"},
			{Key: "status", Value: "$_id.status"},
			{Key: "count", Value: 1},
			{Key: "amount", Value: 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}}},
	)
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.D, opts *options.FindOptions, out interface{}) error {
	var (
		cur *mongo.Cursor
		err error
	)
	if opts != nil {
		cur, err = coll.Find(ctx, filter, opts)
	} else {
		cur, err = coll.Find(ctx, filter)
	}
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

// findOne reports false with a nil error when nothing matches.
func findOne(ctx context.Context, coll *mongo.Collection, filter bson.D, out interface{}) (bool, error) {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
