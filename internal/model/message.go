package model

import (
	"strings"
	"time"
)

// BaseUser is the minimal identity a message carries for each participant.
type BaseUser struct {
	ID        int     `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Mi        *string `json:"mi"`
	AvatarURL *string `json:"avatarUrl"`
}

func (u BaseUser) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type Message struct {
	ID           int        `json:"id"`
	Content      string     `json:"messageContent"`
	Subject      *string    `json:"subject"`
	Recipient    BaseUser   `json:"recipient"`
	Sender       BaseUser   `json:"sender"`
	DateSent     *time.Time `json:"dateSent"`
	DateRead     *time.Time `json:"dateRead"`
	DateCreated  time.Time  `json:"dateCreated"`
	DateModified time.Time  `json:"dateModified"`
}

// Timestamp is the instant a message is ordered by: when it was sent, or when
// the store created it if it carries no send time.
func (m Message) Timestamp() time.Time {
	if m.DateSent != nil {
		return *m.DateSent
	}
	return m.DateCreated
}

// Between reports whether the message was exchanged by a and b, in either direction.
func (m Message) Between(a, b int) bool {
	return (m.Sender.ID == a && m.Recipient.ID == b) || (m.Sender.ID == b && m.Recipient.ID == a)
}
