package model

import "time"

// BloodDonationRequest represents a posted need for blood as stored in
// the `blood_donation_requests` table.  A request belongs to the user
// who posted it and may accumulate any number of responses.  Requests
// are never deleted.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who posted the request.
//  BloodType     – free-text blood classification (e.g. "O+").  Not
//                  validated against a fixed set.
//  Location      – free-text location supplied by the requester.
//  Urgency       – free-text severity indicator, opaque to the core.
//  ContactNumber – phone number to reach the requester.
//  Notes         – optional additional details.
//  CreatedAt     – creation timestamp, set explicitly at insert time.
//  UpdatedAt     – last update timestamp.  Always equals CreatedAt for
//                  newly created rows; rows predating the column are
//                  backfilled lazily when listed (see RequestRepo.List).
type BloodDonationRequest struct {
    ID            uint64    // blood_donation_requests.id
    UserID        uint64    // blood_donation_requests.user_id
    BloodType     string    // blood_donation_requests.blood_type
    Location      string    // blood_donation_requests.location
    Urgency       string    // blood_donation_requests.urgency
    ContactNumber string    // blood_donation_requests.contact_number
    Notes         *string   // blood_donation_requests.notes (nullable)
    CreatedAt     time.Time // blood_donation_requests.created_at
    UpdatedAt     time.Time // blood_donation_requests.updated_at
}
