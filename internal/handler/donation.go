package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-match/internal/middleware"
	"github.com/iliyamo/blood-donation-match/internal/model"
	"github.com/iliyamo/blood-donation-match/internal/repository"
	"github.com/iliyamo/blood-donation-match/internal/service"
)

// DonationHandler exposes the request/response matching endpoints. All
// authorization decisions live in the matching service; the handler
// only binds input, forwards the caller's credential and maps errors
// to HTTP status codes.
type DonationHandler struct {
	Svc *service.Matcher
}

func NewDonationHandler(svc *service.Matcher) *DonationHandler {
	if svc == nil {
		panic("nil matcher passed to NewDonationHandler")
	}
	return &DonationHandler{Svc: svc}
}

// ----- DTOs -----

type createRequestReq struct {
	BloodType     string  `json:"blood_type"`
	Location      string  `json:"location"`
	Urgency       string  `json:"urgency"`
	ContactNumber string  `json:"contact_number"`
	Notes         *string `json:"notes"`
}

type requestResp struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	BloodType     string    `json:"blood_type"`
	Location      string    `json:"location"`
	Urgency       string    `json:"urgency"`
	ContactNumber string    `json:"contact_number"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type createResponseReq struct {
	RequestID uint64 `json:"request_id"`
	Message   string `json:"message"`
}

type responseResp struct {
	ID        uint64    `json:"id"`
	RequestID uint64    `json:"request_id"`
	DonorID   uint64    `json:"donor_id"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// paginatedResp is the envelope returned by the list endpoints.
type paginatedResp struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

func toRequestResp(r model.BloodDonationRequest) requestResp {
	return requestResp{
		ID:            r.ID,
		UserID:        r.UserID,
		BloodType:     r.BloodType,
		Location:      r.Location,
		Urgency:       r.Urgency,
		ContactNumber: r.ContactNumber,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toResponseResp(r model.BloodDonationResponse) responseResp {
	return responseResp{
		ID:        r.ID,
		RequestID: r.RequestID,
		DonorID:   r.DonorID,
		Message:   r.Message,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

// CreateRequest handles POST /v1/requests.
func (h *DonationHandler) CreateRequest(c echo.Context) error {
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	created, err := h.Svc.CreateRequest(ctx, middleware.CallerEmail(c), service.RequestInput{
		BloodType:     req.BloodType,
		Location:      req.Location,
		Urgency:       req.Urgency,
		ContactNumber: req.ContactNumber,
		Notes:         req.Notes,
	})
	if err != nil {
		return donationError(c, err)
	}
	return c.JSON(http.StatusCreated, toRequestResp(created))
}

// ListRequests handles GET /v1/requests.  blood_type and location are
// optional filters; blank values mean no filter.
func (h *DonationHandler) ListRequests(c echo.Context) error {
	skip, limit, err := pageParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	filter := repository.RequestFilter{
		BloodType: c.QueryParam("blood_type"),
		Location:  c.QueryParam("location"),
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	page, err := h.Svc.ListRequests(ctx, middleware.CallerEmail(c), filter, skip, limit)
	if err != nil {
		return donationError(c, err)
	}
	items := make([]requestResp, 0, len(page.Items))
	for _, r := range page.Items {
		items = append(items, toRequestResp(r))
	}
	return c.JSON(http.StatusOK, paginatedResp{Items: items, Total: page.Total, Page: page.Page, Size: page.Size, Pages: page.Pages})
}

// GetRequest handles GET /v1/requests/:id.
func (h *DonationHandler) GetRequest(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	req, err := h.Svc.GetRequest(ctx, middleware.CallerEmail(c), id)
	if err != nil {
		return donationError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResp(req))
}

// CreateResponse handles POST /v1/responses.  The donor id is always
// the caller; status always starts out pending.
func (h *DonationHandler) CreateResponse(c echo.Context) error {
	var req createResponseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RequestID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "request_id is required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	created, err := h.Svc.CreateResponse(ctx, middleware.CallerEmail(c), req.RequestID, req.Message)
	if err != nil {
		return donationError(c, err)
	}
	return c.JSON(http.StatusCreated, toResponseResp(created))
}

// ListResponses handles GET /v1/responses.
func (h *DonationHandler) ListResponses(c echo.Context) error {
	skip, limit, err := pageParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	page, err := h.Svc.ListResponses(ctx, middleware.CallerEmail(c), skip, limit)
	if err != nil {
		return donationError(c, err)
	}
	items := make([]responseResp, 0, len(page.Items))
	for _, r := range page.Items {
		items = append(items, toResponseResp(r))
	}
	return c.JSON(http.StatusOK, paginatedResp{Items: items, Total: page.Total, Page: page.Page, Size: page.Size, Pages: page.Pages})
}

// pageParams parses skip and limit query parameters with the documented
// defaults (skip=0, limit=100).
func pageParams(c echo.Context) (skip, limit int, err error) {
	skip, limit = 0, 100
	if s := c.QueryParam("skip"); s != "" {
		skip, err = strconv.Atoi(s)
		if err != nil || skip < 0 {
			return 0, 0, errors.New("invalid skip")
		}
	}
	if l := c.QueryParam("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 0 {
			return 0, 0, errors.New("invalid limit")
		}
	}
	return skip, limit, nil
}

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// donationError maps service and repository errors onto HTTP responses.
// Anything unrecognized is a server-side failure and surfaces as 500
// without an internal retry.
func donationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, repository.ErrRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "blood donation request not found"})
	case errors.Is(err, service.ErrNotDonor):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "user is not registered as a donor"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
