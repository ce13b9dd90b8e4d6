// Package service contains the matching engine that sits between the
// HTTP handlers and the stores. Every operation runs the same
// pre-check: the caller's email credential is resolved to a live user
// before any store is touched. The engine owns no state of its own;
// requests and responses live in the stores behind the interfaces
// below so the engine can be exercised against MySQL in production and
// against in-memory fakes in tests.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/blood-donation-match/internal/model"
	"github.com/iliyamo/blood-donation-match/internal/queue"
	"github.com/iliyamo/blood-donation-match/internal/repository"
)

// ErrUnauthenticated is returned when no credential is supplied.
// Handlers should translate this into an HTTP 401 response.
var ErrUnauthenticated = errors.New("authentication required")

// ErrNotDonor is returned by CreateResponse when the donor-role policy
// is enabled and the caller lacks the donor capability. Handlers
// should translate this into an HTTP 403 response.
var ErrNotDonor = errors.New("user is not registered as a donor")

// UserStore resolves caller credentials. Soft-deleted users must be
// reported as repository.ErrUserNotFound.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// RequestStore holds blood donation requests.
type RequestStore interface {
	Create(ctx context.Context, req *model.BloodDonationRequest) error
	GetByID(ctx context.Context, id uint64) (model.BloodDonationRequest, error)
	List(ctx context.Context, f repository.RequestFilter, skip, limit int) ([]model.BloodDonationRequest, int64, error)
}

// ResponseStore holds donor responses.
type ResponseStore interface {
	Create(ctx context.Context, resp *model.BloodDonationResponse) error
	List(ctx context.Context, skip, limit int) ([]model.BloodDonationResponse, int64, error)
}

// EventPublisher emits lifecycle events to the message broker. A nil
// publisher disables event emission; publish failures never fail the
// originating operation.
type EventPublisher interface {
	PublishResponseCreated(ctx context.Context, ev queue.ResponseCreatedEvent) error
}

// Matcher composes the stores into the request/response matching
// operations. EnforceDonorRole gates CreateResponse on the donor
// capability; it is off by default to match the current product
// behavior, where the check exists but is not yet switched on. Flip it
// once the role migration is complete.
type Matcher struct {
	Users            UserStore
	Requests         RequestStore
	Responses        ResponseStore
	Events           EventPublisher
	EnforceDonorRole bool
}

// NewMatcher constructs a Matcher with the donor gate disabled.
func NewMatcher(users UserStore, requests RequestStore, responses ResponseStore) *Matcher {
	return &Matcher{Users: users, Requests: requests, Responses: responses}
}

// RequestInput carries the caller-supplied fields for CreateRequest.
// None of them are validated beyond what the storage accepts: blood
// type and urgency are free text by design.
type RequestInput struct {
	BloodType     string
	Location      string
	Urgency       string
	ContactNumber string
	Notes         *string
}

// RequestPage is the paginated envelope for request listings.
type RequestPage struct {
	Items []model.BloodDonationRequest
	Total int64
	Page  int
	Size  int
	Pages int
}

// ResponsePage is the paginated envelope for response listings.
type ResponsePage struct {
	Items []model.BloodDonationResponse
	Total int64
	Page  int
	Size  int
	Pages int
}

// pageNumbers derives the 1-based page number and total page count for
// an offset/limit listing. For a non-positive limit both collapse to 1.
func pageNumbers(total int64, skip, limit int) (page, pages int) {
	if limit <= 0 {
		return 1, 1
	}
	page = skip/limit + 1
	pages = int((total + int64(limit) - 1) / int64(limit))
	return page, pages
}

// resolveCaller performs the universal pre-check shared by every
// operation: a missing credential is ErrUnauthenticated, an unknown or
// soft-deleted user surfaces as repository.ErrUserNotFound. The lookup
// happens on every call; there is no session cache.
func (m *Matcher) resolveCaller(ctx context.Context, email string) (model.User, error) {
	if strings.TrimSpace(email) == "" {
		return model.User{}, ErrUnauthenticated
	}
	return m.Users.GetByEmail(ctx, email)
}

// CreateRequest stores a new blood donation request owned by the
// caller. Any authenticated user may post a request; the recipient
// capability is deliberately not required.
func (m *Matcher) CreateRequest(ctx context.Context, email string, in RequestInput) (model.BloodDonationRequest, error) {
	caller, err := m.resolveCaller(ctx, email)
	if err != nil {
		return model.BloodDonationRequest{}, err
	}
	req := model.BloodDonationRequest{
		UserID:        caller.ID,
		BloodType:     in.BloodType,
		Location:      in.Location,
		Urgency:       in.Urgency,
		ContactNumber: in.ContactNumber,
		Notes:         in.Notes,
	}
	if err := m.Requests.Create(ctx, &req); err != nil {
		return model.BloodDonationRequest{}, err
	}
	return req, nil
}

// ListRequests returns a page of requests matching the filter.
func (m *Matcher) ListRequests(ctx context.Context, email string, f repository.RequestFilter, skip, limit int) (RequestPage, error) {
	if _, err := m.resolveCaller(ctx, email); err != nil {
		return RequestPage{}, err
	}
	items, total, err := m.Requests.List(ctx, f, skip, limit)
	if err != nil {
		return RequestPage{}, err
	}
	page, pages := pageNumbers(total, skip, limit)
	return RequestPage{Items: items, Total: total, Page: page, Size: limit, Pages: pages}, nil
}

// GetRequest fetches a single request by id.
func (m *Matcher) GetRequest(ctx context.Context, email string, id uint64) (model.BloodDonationRequest, error) {
	if _, err := m.resolveCaller(ctx, email); err != nil {
		return model.BloodDonationRequest{}, err
	}
	return m.Requests.GetByID(ctx, id)
}

// CreateResponse records the caller's offer against an existing
// request. The target request must exist; nothing is written when it
// does not. Status is always forced to "pending" regardless of input.
func (m *Matcher) CreateResponse(ctx context.Context, email string, requestID uint64, message string) (model.BloodDonationResponse, error) {
	caller, err := m.resolveCaller(ctx, email)
	if err != nil {
		return model.BloodDonationResponse{}, err
	}
	if m.EnforceDonorRole && !model.IsDonor(caller.Role) {
		return model.BloodDonationResponse{}, ErrNotDonor
	}
	target, err := m.Requests.GetByID(ctx, requestID)
	if err != nil {
		return model.BloodDonationResponse{}, err
	}
	resp := model.BloodDonationResponse{
		RequestID: requestID,
		DonorID:   caller.ID,
		Message:   message,
		Status:    model.StatusPending,
	}
	if err := m.Responses.Create(ctx, &resp); err != nil {
		return model.BloodDonationResponse{}, err
	}
	if m.Events != nil {
		// Best effort: a broker outage must not fail the response.
		_ = m.Events.PublishResponseCreated(ctx, queue.ResponseCreatedEvent{
			ResponseID: resp.ID,
			RequestID:  resp.RequestID,
			DonorID:    resp.DonorID,
			BloodType:  target.BloodType,
			Location:   target.Location,
			Urgency:    target.Urgency,
			Status:     resp.Status,
			CreatedAt:  resp.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ListResponses returns a page of all responses.
func (m *Matcher) ListResponses(ctx context.Context, email string, skip, limit int) (ResponsePage, error) {
	if _, err := m.resolveCaller(ctx, email); err != nil {
		return ResponsePage{}, err
	}
	items, total, err := m.Responses.List(ctx, skip, limit)
	if err != nil {
		return ResponsePage{}, err
	}
	page, pages := pageNumbers(total, skip, limit)
	return ResponsePage{Items: items, Total: total, Page: page, Size: limit, Pages: pages}, nil
}
