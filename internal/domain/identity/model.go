package identity

import "time"

// User is a registered identity. Email is the primary key and the
// handle members are addressed by everywhere else in the system.
type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
