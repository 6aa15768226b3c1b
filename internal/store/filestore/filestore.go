// Package filestore keeps every collection in one JSON document on disk,
// laid out like the mock server's data.json.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/user"
	requestDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/userrequest"
)

// Document is the on-disk layout. Categories are stored as bare names.
type Document struct {
	Users        []*userDatamodel.User           `json:"users"`
	Expenses     []*expenseDatamodel.Expense     `json:"expenses"`
	UserRequests []*requestDatamodel.UserRequest `json:"userRequests"`
	Categories   []string                        `json:"categories"`
}

// Store serializes every read-modify-write cycle behind one mutex and
// replaces the file atomically.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a store backed by path, creating an empty document when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		if err := s.write(&Document{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Users() *UserRepository          { return &UserRepository{s: s} }
func (s *Store) Requests() *RequestRepository    { return &RequestRepository{s: s} }
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }
func (s *Store) Expenses() *ExpenseRepository    { return &ExpenseRepository{s: s} }

// PingContext reports whether the document is still readable.
func (s *Store) PingContext(ctx context.Context) error {
	return s.view(ctx, func(*Document) error { return nil })
}

func (s *Store) view(ctx context.Context, fn func(doc *Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn on the current document and persists it unless fn fails
// or reports that nothing changed.
func (s *Store) update(ctx context.Context, fn func(doc *Document) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return s.write(doc)
}

func (s *Store) read() (*Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var doc Document
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.path, err)
		}
	}
	return &doc, nil
}

func (s *Store) write(doc *Document) error {
	if doc.Users == nil {
		doc.Users = []*userDatamodel.User{}
	}
	if doc.Expenses == nil {
		doc.Expenses = []*expenseDatamodel.Expense{}
	}
	if doc.UserRequests == nil {
		doc.UserRequests = []*requestDatamodel.UserRequest{}
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".data-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
