package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one entry in a user's active-session registry. A bearer
// token is only honored while the token_id it carries has a matching row.
type Session struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	TokenID      uuid.UUID `json:"token_id" db:"token_id"`
	DeviceInfo   string    `json:"device_info" db:"device_info"`
	IPAddress    string    `json:"ip_address" db:"ip_address"`
	LastActivity time.Time `json:"last_activity" db:"last_activity"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
