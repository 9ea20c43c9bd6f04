package domain

import "time"

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Message is one turn in the conversation. The sequence is append-only for
// the lifetime of a session and cleared only on explicit reset.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session ties all requests from one visitor interaction together. The id is
// client-generated unless the backend issues a continuity id, which then
// supersedes it.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating is a per-message thumbs up/down. At most one accepted rating per
// message id.
type Rating string

const (
	RatingPositive Rating = "positive"
	RatingNegative Rating = "negative"
)
