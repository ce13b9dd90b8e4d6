package model

import "time"

// Response status values stored in blood_donation_responses.status.
// Only StatusPending is ever assigned in the current flow; accepted and
// declined exist in the enum but no transition endpoint sets them yet.
const (
    StatusPending  = "pending"
    StatusAccepted = "accepted"
    StatusDeclined = "declined"
)

// BloodDonationResponse records a donor's offer against an existing
// request, as stored in the `blood_donation_responses` table.  A request
// has many responses; nothing prevents the same donor from responding
// to the same request more than once.
//
// Fields:
//  ID        – primary key identifier.
//  RequestID – the request being answered; must reference an existing
//              blood_donation_requests row.
//  DonorID   – user offering to donate.
//  Message   – free-text message from the donor.
//  Status    – one of the Status* constants; "pending" at creation and
//              immutable afterwards in the current scope.
//  CreatedAt – creation timestamp.
type BloodDonationResponse struct {
    ID        uint64    // blood_donation_responses.id
    RequestID uint64    // blood_donation_responses.request_id
    DonorID   uint64    // blood_donation_responses.donor_id
    Message   string    // blood_donation_responses.message
    Status    string    // blood_donation_responses.status
    CreatedAt time.Time // blood_donation_responses.created_at
}
