package smsrelay

import "time"

// QueueTopic carries SMS handed off for asynchronous delivery.
const QueueTopic = "notifications.sms"

// QueuedSMS is the JSON value of a QueueTopic message. The Kafka key is the
// phone number so messages to one recipient stay ordered.
type QueuedSMS struct {
	PhoneNumber string    `json:"phone_number"`
	Message     string    `json:"message"`
	QueuedAt    time.Time `json:"queued_at"`
	RequestID   string    `json:"request_id,omitempty"`
}
