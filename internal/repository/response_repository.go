package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/blood-donation-match/internal/model"
)

// ResponseRepo provides operations for blood donation responses. A
// response references an existing request; the existence check happens
// in the matching service immediately before Create, with no
// transactional coupling between the two tables.
type ResponseRepo struct {
	db *sql.DB
}

// NewResponseRepo returns a new ResponseRepo bound to the given database.
func NewResponseRepo(db *sql.DB) *ResponseRepo { return &ResponseRepo{db: db} }

// Create inserts a new response and populates the generated id and
// stored timestamps on the passed record. The caller sets Status;
// the matching service always forces it to "pending".
func (r *ResponseRepo) Create(ctx context.Context, resp *model.BloodDonationResponse) error {
	const q = `INSERT INTO blood_donation_responses (request_id, donor_id, message, status) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, resp.RequestID, resp.DonorID, resp.Message, resp.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	resp.ID = uint64(id)
	// Query back the stored row so the caller sees the database
	// timestamp rather than an approximation.
	const sel = `SELECT id, request_id, donor_id, message, status, created_at FROM blood_donation_responses WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, resp.ID).Scan(
		&resp.ID, &resp.RequestID, &resp.DonorID, &resp.Message, &resp.Status, &resp.CreatedAt)
}

// List returns responses in insertion order along with the total count.
// No filtering is supported; pagination matches RequestRepo.List.
func (r *ResponseRepo) List(ctx context.Context, skip, limit int) ([]model.BloodDonationResponse, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blood_donation_responses").Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT id, request_id, donor_id, message, status, created_at
		FROM blood_donation_responses
		ORDER BY id ASC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.BloodDonationResponse, 0, limit)
	for rows.Next() {
		var resp model.BloodDonationResponse
		if err := rows.Scan(&resp.ID, &resp.RequestID, &resp.DonorID, &resp.Message, &resp.Status, &resp.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
