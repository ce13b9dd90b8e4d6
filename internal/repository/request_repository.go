package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/blood-donation-match/internal/model"
)

// RequestRepo provides CRUD operations for blood donation requests.
// All timestamp fields are stored in UTC. Requests are never deleted;
// the only mutation after creation is the lazy updated_at backfill
// performed while serving List.
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo returns a new RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// RequestFilter defines the optional filters for List. A value is
// applied only when it is non-empty after trimming whitespace; blank
// filters mean "no filter", not an error.
type RequestFilter struct {
	BloodType string
	Location  string
}

const requestColumns = "id, user_id, blood_type, location, urgency, contact_number, notes, created_at, updated_at"

// Create inserts a new request. Both created_at and updated_at are set
// explicitly to the same instant rather than left to column defaults,
// so a freshly created row never carries a NULL updated_at. The
// generated id and stored timestamps are populated on the passed
// record.
func (r *RequestRepo) Create(ctx context.Context, req *model.BloodDonationRequest) error {
	now := time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO blood_donation_requests
		(user_id, blood_type, location, urgency, contact_number, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		req.UserID, req.BloodType, req.Location, req.Urgency, req.ContactNumber, req.Notes, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.CreatedAt = now
	req.UpdatedAt = now
	return nil
}

// GetByID fetches a single request. When no row exists,
// ErrRequestNotFound is returned.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (model.BloodDonationRequest, error) {
	const q = "SELECT " + requestColumns + " FROM blood_donation_requests WHERE id = ? LIMIT 1"
	req, err := scanRequest(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.BloodDonationRequest{}, ErrRequestNotFound
	}
	return req, err
}

// List returns requests matching the filter along with the total count
// of matching rows. Pagination is offset-based over a stable id
// ordering: skip rows are discarded before up to limit rows are
// returned.
//
// Serving a List also repairs the data it reads: every row in the
// filtered set whose updated_at is NULL gets stamped with the current
// instant before counting. Rows created before the updated_at column
// existed are backfilled this way. The UPDATE is guarded by
// `updated_at IS NULL`, so concurrent Lists racing on the same rows
// each write an equally valid "now" and the last writer wins; no lock
// is needed.
func (r *RequestRepo) List(ctx context.Context, f RequestFilter, skip, limit int) ([]model.BloodDonationRequest, int64, error) {
	where := []string{}
	args := []any{}

	if bt := strings.TrimSpace(f.BloodType); bt != "" {
		where = append(where, "blood_type = ?")
		args = append(args, f.BloodType)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		where = append(where, "location = ?")
		args = append(args, f.Location)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	// Backfill NULL updated_at for the filtered set before serving it.
	now := time.Now().UTC().Truncate(time.Second)
	repairSQL := "UPDATE blood_donation_requests SET updated_at = ? WHERE updated_at IS NULL AND " + cond
	repairArgs := append([]any{now}, args...)
	if _, err := r.db.ExecContext(ctx, repairSQL, repairArgs...); err != nil {
		return nil, 0, err
	}

	var total int64
	countSQL := "SELECT COUNT(*) FROM blood_donation_requests WHERE " + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + requestColumns + ` FROM blood_donation_requests
		WHERE ` + cond + `
		ORDER BY id ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, skip)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.BloodDonationRequest, 0, limit)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (model.BloodDonationRequest, error) {
	var req model.BloodDonationRequest
	var notes sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&req.ID, &req.UserID, &req.BloodType, &req.Location,
		&req.Urgency, &req.ContactNumber, &notes, &req.CreatedAt, &updatedAt)
	if err != nil {
		return model.BloodDonationRequest{}, err
	}
	if notes.Valid {
		n := notes.String
		req.Notes = &n
	}
	if updatedAt.Valid {
		req.UpdatedAt = updatedAt.Time
	}
	return req, nil
}
