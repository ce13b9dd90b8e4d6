// Package queue defines message payloads exchanged over the message broker.
package queue

// ResponseCreatedEvent is published when a donor responds to a blood
// donation request. It contains enough information for downstream
// consumers to log or trigger analytics without querying the primary
// database.
type ResponseCreatedEvent struct {
    ResponseID uint64 `json:"response_id"`
    RequestID  uint64 `json:"request_id"`
    DonorID    uint64 `json:"donor_id"`
    BloodType  string `json:"blood_type"`
    Location   string `json:"location"`
    Urgency    string `json:"urgency"`
    Status     string `json:"status"`
    CreatedAt  string `json:"created_at"`
}
