package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/payable/internal/accessrequest"
	"github.com/frahmantamala/payable/internal/expense"
	"github.com/frahmantamala/payable/internal/user"
)

// Source fetches each collection independently. Two fetches of one cycle
// may observe different points in time.
type Source interface {
	Users(ctx context.Context) ([]*user.User, error)
	Expenses(ctx context.Context) ([]*expense.Expense, error)
	UserRequests(ctx context.Context) ([]*accessrequest.Request, error)
	Categories(ctx context.Context) ([]string, error)
}

type UserLister interface {
	List(ctx context.Context) ([]*user.User, error)
}

type ExpenseLister interface {
	List(ctx context.Context) ([]*expense.Expense, error)
}

type RequestLister interface {
	List(ctx context.Context) ([]*accessrequest.Request, error)
}

type CategoryLister interface {
	List(ctx context.Context) ([]string, error)
}

// StoreSource reads through the in-process services.
type StoreSource struct {
	users      UserLister
	expenses   ExpenseLister
	requests   RequestLister
	categories CategoryLister
}

func NewStoreSource(users UserLister, expenses ExpenseLister, requests RequestLister, categories CategoryLister) *StoreSource {
	return &StoreSource{users: users, expenses: expenses, requests: requests, categories: categories}
}

func (s *StoreSource) Users(ctx context.Context) ([]*user.User, error) {
	return s.users.List(ctx)
}

func (s *StoreSource) Expenses(ctx context.Context) ([]*expense.Expense, error) {
	return s.expenses.List(ctx)
}

func (s *StoreSource) UserRequests(ctx context.Context) ([]*accessrequest.Request, error) {
	return s.requests.List(ctx)
}

func (s *StoreSource) Categories(ctx context.Context) ([]string, error) {
	return s.categories.List(ctx)
}

// HTTPSource reads the collections from a running API, the way the web
// client polls it.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPSource targets baseURL, e.g. http://localhost:3001/api/v1. An
// empty token sends anonymous requests.
func NewHTTPSource(baseURL, token string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Users(ctx context.Context) ([]*user.User, error) {
	var out []*user.User
	err := s.get(ctx, "/users", &out)
	return out, err
}

func (s *HTTPSource) Expenses(ctx context.Context) ([]*expense.Expense, error) {
	var out []*expense.Expense
	err := s.get(ctx, "/expenses", &out)
	return out, err
}

func (s *HTTPSource) UserRequests(ctx context.Context) ([]*accessrequest.Request, error) {
	var out []*accessrequest.Request
	err := s.get(ctx, "/user-requests", &out)
	return out, err
}

func (s *HTTPSource) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := s.get(ctx, "/categories", &out)
	return out, err
}

func (s *HTTPSource) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, body.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
