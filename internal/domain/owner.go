package domain

import "time"

// Owner identifies the account a task belongs to. The full account
// lifecycle (registration, authentication) lives outside this core; the
// service only needs enough to verify an owner exists before attaching
// tasks to it.
type Owner struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
