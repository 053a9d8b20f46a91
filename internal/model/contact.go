package model

import "time"

// Contact is a message left through the public support form.
type Contact struct {
	ID        uint64    // contacts.id
	Name      string    // contacts.name
	Email     string    // contacts.email
	Message   string    // contacts.message
	CreatedAt time.Time // contacts.created_at
}
