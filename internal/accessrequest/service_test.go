package accessrequest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/accessrequest"
	requestDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/userrequest"
	userDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/user"
	"github.com/frahmantamala/payable/internal/core/events"
	"github.com/frahmantamala/payable/internal/user"
)

func TestAccessRequestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Access Request Service Suite")
}

// MockRequestRepository implements accessrequest.RepositoryAPI for testing
type MockRequestRepository struct {
	mu         sync.Mutex
	requests   []*requestDatamodel.UserRequest
	shouldFail bool
	failError  error
	// beforeTransition runs once, just before the next status write.
	beforeTransition func()
}

func NewMockRequestRepository() *MockRequestRepository {
	return &MockRequestRepository{}
}

func (m *MockRequestRepository) List(ctx context.Context) ([]*requestDatamodel.UserRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, m.failError
	}
	out := make([]*requestDatamodel.UserRequest, len(m.requests))
	for i, r := range m.requests {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*requestDatamodel.UserRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, m.failError
	}
	for _, r := range m.requests {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockRequestRepository) Create(ctx context.Context, r *requestDatamodel.UserRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return m.failError
	}
	cp := *r
	m.requests = append(m.requests, &cp)
	return nil
}

func (m *MockRequestRepository) TransitionStatus(ctx context.Context, id, from string, t requestDatamodel.Transition) (bool, error) {
	if hook := m.beforeTransition; hook != nil {
		m.beforeTransition = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return false, m.failError
	}
	for _, r := range m.requests {
		if r.ID == id && r.Status == from {
			t.Apply(r)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRequestRepository) status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			return r.Status
		}
	}
	return ""
}

func (m *MockRequestRepository) forceStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			r.Status = status
		}
	}
}

// mockUserRepository backs a real user.Service.
type mockUserRepository struct {
	mu         sync.Mutex
	users      []*userDatamodel.User
	createFail error
}

func (m *mockUserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*userDatamodel.User(nil), m.users...), nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFail != nil {
		return m.createFail
	}
	m.users = append(m.users, u)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.EventType())
	return nil
}

type recordingOutcomes struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingOutcomes) ObserveOutcome(operation, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, operation+":"+result)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = Describe("Access Request Service", func() {
	var (
		ctx       context.Context
		repo      *MockRequestRepository
		userRepo  *mockUserRepository
		users     *user.Service
		publisher *recordingPublisher
		outcomes  *recordingOutcomes
		service   *accessrequest.Service
	)

	submit := func(name, email string) *accessrequest.Request {
		req, err := service.Submit(ctx, accessrequest.SubmitRequestDTO{Name: name, Email: email})
		Expect(err).NotTo(HaveOccurred())
		return req
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRequestRepository()
		userRepo = &mockUserRepository{}
		users = user.NewService(userRepo, nil, discardLogger())
		publisher = &recordingPublisher{}
		outcomes = &recordingOutcomes{}
		service = accessrequest.NewService(repo, users, publisher, outcomes, discardLogger())
	})

	Describe("Submit", func() {
		It("records a pending request with a generated id", func() {
			req := submit(" Jane ", " jane@x.com ")

			Expect(req.ID).To(HavePrefix("req-"))
			Expect(req.Name).To(Equal("Jane"))
			Expect(req.Email).To(Equal("jane@x.com"))
			Expect(req.Status).To(Equal(accessrequest.StatusPending))
			Expect(req.RequestedAt).To(BeTemporally("~", time.Now(), time.Minute))
			Expect(req.Role).To(BeNil())
			Expect(publisher.events).To(ConsistOf(events.UserRequestSubmitted))
		})

		It("allows the same email to apply twice", func() {
			submit("Jane", "jane@x.com")
			submit("Jane", "jane@x.com")

			list, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
		})

		It("requires a name", func() {
			_, err := service.Submit(ctx, accessrequest.SubmitRequestDTO{Email: "jane@x.com"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(repo.requests).To(BeEmpty())
		})

		It("requires an email containing @", func() {
			_, err := service.Submit(ctx, accessrequest.SubmitRequestDTO{Name: "Jane", Email: "jane"})
			Expect(err).To(HaveOccurred())
			Expect(outcomes.outcomes).To(ContainElement("submit:validation_error"))
		})
	})

	Describe("List", func() {
		It("orders requests newest first", func() {
			base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
			repo.requests = []*requestDatamodel.UserRequest{
				{ID: "a", Name: "A", Email: "a@x.com", Status: "pending", RequestedAt: base},
				{ID: "c", Name: "C", Email: "c@x.com", Status: "pending", RequestedAt: base.Add(2 * time.Hour)},
				{ID: "b", Name: "B", Email: "b@x.com", Status: "rejected", RequestedAt: base.Add(time.Hour)},
			}

			list, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect([]string{list[0].ID, list[1].ID, list[2].ID}).To(Equal([]string{"c", "b", "a"}))
		})

		It("wraps repository failures", func() {
			repo.shouldFail = true
			repo.failError = errors.New("disk gone")

			_, err := service.List(ctx)
			Expect(err).To(MatchError(ContainSubstring("disk gone")))
		})
	})

	Describe("Approve", func() {
		It("approves and creates an active user with the chosen role", func() {
			req := submit("Jane", "jane@x.com")

			u, err := service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{Role: user.RolePayer, ApprovedBy: "admin-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("jane@x.com"))
			Expect(u.Role).To(Equal(user.RolePayer))
			Expect(u.Status).To(Equal(user.StatusActive))

			stored, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(accessrequest.StatusApproved))
			Expect(*stored.Role).To(Equal(user.RolePayer))
			Expect(*stored.ApprovedBy).To(Equal("admin-1"))
			Expect(stored.ApprovedAt).NotTo(BeNil())

			Expect(publisher.events).To(ContainElement(events.UserRequestApproved))
			Expect(outcomes.outcomes).To(ContainElement("approve:ok"))
		})

		It("defaults the role to viewer", func() {
			req := submit("Jane", "jane@x.com")

			u, err := service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(user.RoleViewer))
		})

		It("rejects an unknown role without touching the request", func() {
			req := submit("Jane", "jane@x.com")

			_, err := service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{Role: "owner"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(repo.status(req.ID)).To(Equal(accessrequest.StatusPending))
		})

		It("returns NotFound for an unknown id", func() {
			_, err := service.Approve(ctx, "req-missing", accessrequest.ApproveRequestDTO{})
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
		})

		It("reports a missing or decided request before checking the role", func() {
			_, err := service.Approve(ctx, "req-missing", accessrequest.ApproveRequestDTO{Role: "owner"})
			Expect(err).To(MatchError(internal.ErrRequestNotFound))

			req := submit("Jane", "jane@x.com")
			_, err = service.Reject(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{Role: "owner"})
			Expect(err).To(MatchError(internal.ErrRequestProcessed))
		})

		It("refuses a request that was already decided", func() {
			req := submit("Jane", "jane@x.com")
			_, err := service.Reject(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{})
			Expect(err).To(MatchError(internal.ErrRequestProcessed))
			Expect(repo.status(req.ID)).To(Equal(accessrequest.StatusRejected))
			Expect(userRepo.users).To(BeEmpty())
		})

		It("refuses an email that already has an account and leaves the request pending", func() {
			_, err := users.Create(ctx, user.CreateUserDTO{Name: "Jane", Email: "jane@x.com", Role: user.RoleViewer})
			Expect(err).NotTo(HaveOccurred())
			req := submit("Jane", "jane@x.com")

			_, err = service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{})
			Expect(err).To(MatchError(internal.ErrDuplicateEmail))
			Expect(repo.status(req.ID)).To(Equal(accessrequest.StatusPending))
			Expect(userRepo.users).To(HaveLen(1))
			Expect(outcomes.outcomes).To(ContainElement("approve:conflict"))
		})

		It("loses cleanly when another decision lands first", func() {
			req := submit("Jane", "jane@x.com")
			repo.beforeTransition = func() { repo.forceStatus(req.ID, accessrequest.StatusRejected) }

			_, err := service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{})
			Expect(err).To(MatchError(internal.ErrRequestProcessed))
			Expect(repo.status(req.ID)).To(Equal(accessrequest.StatusRejected))
			Expect(userRepo.users).To(BeEmpty())
		})

		It("puts the request back to pending when the user cannot be created", func() {
			req := submit("Jane", "jane@x.com")
			userRepo.createFail = errors.New("insert failed")

			_, err := service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{Role: user.RoleCreator})
			Expect(err).To(HaveOccurred())
			Expect(repo.status(req.ID)).To(Equal(accessrequest.StatusPending))

			stored, _ := repo.GetByID(ctx, req.ID)
			Expect(stored.Role).To(BeNil())
			Expect(stored.ApprovedAt).To(BeNil())
			Expect(publisher.events).NotTo(ContainElement(events.UserRequestApproved))
		})

		It("creates exactly one user when two approvals race", func() {
			req := submit("Jane", "jane@x.com")

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{})
				}(i)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
				}
			}
			Expect(succeeded).To(Equal(1))
			Expect(userRepo.users).To(HaveLen(1))
		})
	})

	Describe("Reject", func() {
		It("rejects a pending request and returns it", func() {
			req := submit("Jane", "jane@x.com")

			rejected, err := service.Reject(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.ID).To(Equal(req.ID))
			Expect(rejected.Status).To(Equal(accessrequest.StatusRejected))
			Expect(rejected.Role).To(BeNil())
			Expect(userRepo.users).To(BeEmpty())
			Expect(publisher.events).To(ContainElement(events.UserRequestRejected))
		})

		It("returns NotFound for an unknown id", func() {
			_, err := service.Reject(ctx, "nope")
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
			Expect(outcomes.outcomes).To(ContainElement("reject:not_found"))
		})

		It("refuses a request that was already approved", func() {
			req := submit("Jane", "jane@x.com")
			_, err := service.Approve(ctx, req.ID, accessrequest.ApproveRequestDTO{})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Reject(ctx, req.ID)
			Expect(err).To(MatchError(internal.ErrRequestProcessed))
			Expect(repo.status(req.ID)).To(Equal(accessrequest.StatusApproved))
		})
	})
})
