package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/blood-donation-match/internal/model"
	"github.com/iliyamo/blood-donation-match/internal/queue"
	"github.com/iliyamo/blood-donation-match/internal/repository"
)

// The fakes below mirror the MySQL repositories' contracts: lookups
// hide soft-deleted users, List applies trim-then-ignore filters and
// backfills unset update timestamps, and pagination is offset-based
// over insertion order.

type fakeUserStore struct {
	users map[string]model.User
	calls int
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	s.calls++
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || u.IsDeleted() {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type fakeRequestStore struct {
	mu      sync.Mutex
	seq     uint64
	items   []model.BloodDonationRequest
	now     time.Time
	calls   int
	repairs int
}

func (s *fakeRequestStore) Create(ctx context.Context, req *model.BloodDonationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seq++
	req.ID = s.seq
	req.CreatedAt = s.now
	req.UpdatedAt = s.now
	s.items = append(s.items, *req)
	return nil
}

func (s *fakeRequestStore) GetByID(ctx context.Context, id uint64) (model.BloodDonationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, r := range s.items {
		if r.ID == id {
			return r, nil
		}
	}
	return model.BloodDonationRequest{}, repository.ErrRequestNotFound
}

func (s *fakeRequestStore) List(ctx context.Context, f repository.RequestFilter, skip, limit int) ([]model.BloodDonationRequest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	bt := strings.TrimSpace(f.BloodType)
	loc := strings.TrimSpace(f.Location)

	matched := make([]int, 0, len(s.items))
	for i, r := range s.items {
		if bt != "" && r.BloodType != f.BloodType {
			continue
		}
		if loc != "" && r.Location != f.Location {
			continue
		}
		matched = append(matched, i)
	}

	// Repair pass over the filtered set before pagination; the unset
	// check mirrors the SQL guard so a row is only written once.
	for _, i := range matched {
		if s.items[i].UpdatedAt.IsZero() {
			s.items[i].UpdatedAt = s.now
			s.repairs++
		}
	}

	total := int64(len(matched))
	if skip > len(matched) {
		skip = len(matched)
	}
	end := len(matched)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	out := make([]model.BloodDonationRequest, 0, end-skip)
	for _, i := range matched[skip:end] {
		out = append(out, s.items[i])
	}
	return out, total, nil
}

type fakeResponseStore struct {
	seq   uint64
	items []model.BloodDonationResponse
	now   time.Time
	calls int
}

func (s *fakeResponseStore) Create(ctx context.Context, resp *model.BloodDonationResponse) error {
	s.calls++
	s.seq++
	resp.ID = s.seq
	resp.CreatedAt = s.now
	s.items = append(s.items, *resp)
	return nil
}

func (s *fakeResponseStore) List(ctx context.Context, skip, limit int) ([]model.BloodDonationResponse, int64, error) {
	s.calls++
	total := int64(len(s.items))
	if skip > len(s.items) {
		skip = len(s.items)
	}
	end := len(s.items)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	out := make([]model.BloodDonationResponse, 0, end-skip)
	out = append(out, s.items[skip:end]...)
	return out, total, nil
}

type fakePublisher struct {
	events []queue.ResponseCreatedEvent
}

func (p *fakePublisher) PublishResponseCreated(ctx context.Context, ev queue.ResponseCreatedEvent) error {
	p.events = append(p.events, ev)
	return nil
}

type fixture struct {
	users     *fakeUserStore
	requests  *fakeRequestStore
	responses *fakeResponseStore
	events    *fakePublisher
	matcher   *Matcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		users: &fakeUserStore{users: map[string]model.User{
			"alice@example.com": {ID: 1, Email: "alice@example.com", Username: "alice", Role: model.RoleRecipient},
			"bob@example.com":   {ID: 2, Email: "bob@example.com", Username: "bob", Role: model.RoleUser},
			"dana@example.com":  {ID: 3, Email: "dana@example.com", Username: "dana", Role: model.RoleDonor},
		}},
		requests:  &fakeRequestStore{now: now},
		responses: &fakeResponseStore{now: now},
		events:    &fakePublisher{},
	}
	f.matcher = NewMatcher(f.users, f.requests, f.responses)
	f.matcher.Events = f.events
	return f
}

func TestCreateRequestSetsBothTimestamps(t *testing.T) {
	f := newFixture(t)

	req, err := f.matcher.CreateRequest(context.Background(), "alice@example.com", RequestInput{
		BloodType: "O+", Location: "Springfield", Urgency: "high", ContactNumber: "555-0101",
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if req.UserID != 1 {
		t.Fatalf("ownership attributed to user %d, want 1", req.UserID)
	}
	if req.CreatedAt.IsZero() || req.UpdatedAt.IsZero() {
		t.Fatal("timestamps must be set at creation")
	}
	if !req.CreatedAt.Equal(req.UpdatedAt) {
		t.Fatalf("created_at %v != updated_at %v", req.CreatedAt, req.UpdatedAt)
	}
}

func TestUnauthenticatedBeforeAnyStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.matcher.CreateRequest(ctx, "", RequestInput{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("CreateRequest: got %v, want ErrUnauthenticated", err)
	}
	if _, err := f.matcher.ListRequests(ctx, "   ", repository.RequestFilter{}, 0, 100); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("ListRequests: got %v, want ErrUnauthenticated", err)
	}
	if _, err := f.matcher.GetRequest(ctx, "", 1); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("GetRequest: got %v, want ErrUnauthenticated", err)
	}
	if _, err := f.matcher.CreateResponse(ctx, "", 1, "hi"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("CreateResponse: got %v, want ErrUnauthenticated", err)
	}
	if _, err := f.matcher.ListResponses(ctx, "", 0, 100); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("ListResponses: got %v, want ErrUnauthenticated", err)
	}
	if f.requests.calls != 0 || f.responses.calls != 0 {
		t.Fatalf("stores touched before authentication: requests=%d responses=%d", f.requests.calls, f.responses.calls)
	}
}

func TestUnknownAndDeletedCallers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.matcher.GetRequest(ctx, "nobody@example.com", 1); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("unknown caller: got %v, want ErrUserNotFound", err)
	}

	deleted := time.Now().UTC()
	f.users.users["gone@example.com"] = model.User{ID: 9, Email: "gone@example.com", Role: model.RoleDonor, DeletedAt: &deleted}
	if _, err := f.matcher.CreateRequest(ctx, "gone@example.com", RequestInput{BloodType: "A+"}); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("deleted caller: got %v, want ErrUserNotFound", err)
	}
	if f.requests.calls != 0 {
		t.Fatalf("request store touched by unresolved caller (%d calls)", f.requests.calls)
	}
}

func TestBlankFilterIsIgnoredNotApplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, bt := range []string{"O+", "A-", "O+"} {
		if _, err := f.matcher.CreateRequest(ctx, "alice@example.com", RequestInput{BloodType: bt, Location: "Springfield"}); err != nil {
			t.Fatalf("CreateRequest: %v", err)
		}
	}

	unfiltered, err := f.matcher.ListRequests(ctx, "bob@example.com", repository.RequestFilter{}, 0, 100)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	blank, err := f.matcher.ListRequests(ctx, "bob@example.com", repository.RequestFilter{BloodType: "   ", Location: "\t"}, 0, 100)
	if err != nil {
		t.Fatalf("ListRequests blank filter: %v", err)
	}
	if blank.Total != unfiltered.Total || len(blank.Items) != len(unfiltered.Items) {
		t.Fatalf("whitespace filter changed the result set: %d/%d vs %d/%d",
			blank.Total, len(blank.Items), unfiltered.Total, len(unfiltered.Items))
	}

	filtered, err := f.matcher.ListRequests(ctx, "bob@example.com", repository.RequestFilter{BloodType: "O+"}, 0, 100)
	if err != nil {
		t.Fatalf("ListRequests O+: %v", err)
	}
	if filtered.Total != 2 {
		t.Fatalf("O+ filter matched %d requests, want 2", filtered.Total)
	}
}

func TestListRepairsMissingUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A row from before the updated_at column existed.
	f.requests.seq++
	f.requests.items = append(f.requests.items, model.BloodDonationRequest{
		ID: f.requests.seq, UserID: 1, BloodType: "B+", Location: "Shelbyville",
		CreatedAt: f.requests.now.Add(-48 * time.Hour),
	})

	if _, err := f.matcher.ListRequests(ctx, "bob@example.com", repository.RequestFilter{}, 0, 100); err != nil {
		t.Fatalf("ListRequests: %v", err)
	}

	got, err := f.matcher.GetRequest(ctx, "bob@example.com", f.requests.seq)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("updated_at still unset after List served the row")
	}
}

func TestConcurrentListsRepairRowOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.requests.seq++
	id := f.requests.seq
	f.requests.items = append(f.requests.items, model.BloodDonationRequest{
		ID: id, UserID: 1, BloodType: "B+", Location: "Shelbyville",
		CreatedAt: f.requests.now.Add(-48 * time.Hour),
	})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.matcher.ListRequests(ctx, "bob@example.com", repository.RequestFilter{}, 0, 100)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("ListRequests #%d: %v", i, err)
		}
	}

	got, err := f.matcher.GetRequest(ctx, "bob@example.com", id)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("updated_at still unset after concurrent listings")
	}
	if f.requests.repairs != 1 {
		t.Fatalf("row backfilled %d times, want exactly 1", f.requests.repairs)
	}
}

func TestPageNumbers(t *testing.T) {
	cases := []struct {
		total       int64
		skip, limit int
		page, pages int
	}{
		{0, 0, 100, 1, 0},
		{1, 0, 100, 1, 1},
		{100, 0, 100, 1, 1},
		{101, 0, 100, 1, 2},
		{101, 100, 100, 2, 2},
		{250, 200, 100, 3, 3},
		{7, 4, 2, 3, 4},
		{5, 0, 0, 1, 1},
		{5, 3, -1, 1, 1},
	}
	for _, tc := range cases {
		page, pages := pageNumbers(tc.total, tc.skip, tc.limit)
		if page != tc.page || pages != tc.pages {
			t.Errorf("pageNumbers(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tc.total, tc.skip, tc.limit, page, pages, tc.page, tc.pages)
		}
	}
}

func TestListResponsesEnvelope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.matcher.CreateRequest(ctx, "alice@example.com", RequestInput{BloodType: "O-"})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.matcher.CreateResponse(ctx, "dana@example.com", req.ID, "here to help"); err != nil {
			t.Fatalf("CreateResponse: %v", err)
		}
	}

	page, err := f.matcher.ListResponses(ctx, "bob@example.com", 2, 2)
	if err != nil {
		t.Fatalf("ListResponses: %v", err)
	}
	if page.Total != 5 || page.Page != 2 || page.Size != 2 || page.Pages != 3 {
		t.Fatalf("envelope = total %d page %d size %d pages %d, want 5/2/2/3", page.Total, page.Page, page.Size, page.Pages)
	}
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}
	if page.Items[0].ID != 3 {
		t.Fatalf("offset not honored: first item id %d, want 3", page.Items[0].ID)
	}
}

func TestCreateResponseMissingRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.matcher.CreateResponse(context.Background(), "dana@example.com", 42, "anything")
	if !errors.Is(err, repository.ErrRequestNotFound) {
		t.Fatalf("got %v, want ErrRequestNotFound", err)
	}
	if len(f.responses.items) != 0 {
		t.Fatalf("%d response records created despite missing request", len(f.responses.items))
	}
	if len(f.events.events) != 0 {
		t.Fatalf("%d events published despite missing request", len(f.events.events))
	}
}

func TestNonDonorMayRespondWhileGateDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.matcher.CreateRequest(ctx, "alice@example.com", RequestInput{BloodType: "O+", Location: "Springfield", Urgency: "high"})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	// bob has the plain "user" role; the donor gate is off by default.
	resp, err := f.matcher.CreateResponse(ctx, "bob@example.com", req.ID, "I can help")
	if err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
	if resp.Status != model.StatusPending {
		t.Fatalf("status %q, want %q", resp.Status, model.StatusPending)
	}
	if resp.DonorID != 2 {
		t.Fatalf("donor id %d, want caller id 2", resp.DonorID)
	}
	if len(f.events.events) != 1 {
		t.Fatalf("published %d events, want 1", len(f.events.events))
	}
	ev := f.events.events[0]
	if ev.RequestID != req.ID || ev.BloodType != "O+" || ev.Status != model.StatusPending {
		t.Fatalf("unexpected event payload: %+v", ev)
	}
}

func TestDonorGateWhenEnabled(t *testing.T) {
	f := newFixture(t)
	f.matcher.EnforceDonorRole = true
	ctx := context.Background()

	req, err := f.matcher.CreateRequest(ctx, "alice@example.com", RequestInput{BloodType: "AB+"})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	if _, err := f.matcher.CreateResponse(ctx, "bob@example.com", req.ID, "let me in"); !errors.Is(err, ErrNotDonor) {
		t.Fatalf("non-donor with gate on: got %v, want ErrNotDonor", err)
	}
	if _, err := f.matcher.CreateResponse(ctx, "dana@example.com", req.ID, "donor here"); err != nil {
		t.Fatalf("donor with gate on: %v", err)
	}

	// Admins hold the donor capability implicitly.
	f.users.users["root@example.com"] = model.User{ID: 8, Email: "root@example.com", Role: model.RoleAdmin}
	if _, err := f.matcher.CreateResponse(ctx, "root@example.com", req.ID, "admin here"); err != nil {
		t.Fatalf("admin with gate on: %v", err)
	}
}

func TestScenarioCreateGetAndFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.matcher.CreateRequest(ctx, "alice@example.com", RequestInput{
		BloodType: "O+", Location: "Springfield", Urgency: "high", ContactNumber: "555-0101",
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	got, err := f.matcher.GetRequest(ctx, "bob@example.com", created.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.BloodType != "O+" || got.Location != "Springfield" || got.Urgency != "high" || got.ContactNumber != "555-0101" {
		t.Fatalf("fetched fields differ from created: %+v", got)
	}

	included, err := f.matcher.ListRequests(ctx, "bob@example.com", repository.RequestFilter{BloodType: "O+"}, 0, 100)
	if err != nil {
		t.Fatalf("ListRequests O+: %v", err)
	}
	found := false
	for _, r := range included.Items {
		if r.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("O+ listing does not include the created request")
	}

	excluded, err := f.matcher.ListRequests(ctx, "bob@example.com", repository.RequestFilter{BloodType: "A-"}, 0, 100)
	if err != nil {
		t.Fatalf("ListRequests A-: %v", err)
	}
	for _, r := range excluded.Items {
		if r.ID == created.ID {
			t.Fatal("A- listing includes the O+ request")
		}
	}

	missing, err := f.matcher.GetRequest(ctx, "bob@example.com", created.ID+100)
	if !errors.Is(err, repository.ErrRequestNotFound) {
		t.Fatalf("GetRequest on missing id: got (%+v, %v), want ErrRequestNotFound", missing, err)
	}
}
