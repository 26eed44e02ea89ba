package repository

import (
	"time"

	"github.com/shinyyama/dm-backend/internal/model"
)

// UserRow is one participant's column group (RecipientId, RecipientFirstName, ...).
type UserRow struct {
	ID        int     `gorm:"column:Id"`
	FirstName string  `gorm:"column:FirstName"`
	LastName  string  `gorm:"column:LastName"`
	Mi        *string `gorm:"column:Mi"`
	AvatarURL *string `gorm:"column:AvatarUrl"`
}

type UserMapper interface {
	Map(row UserRow) model.BaseUser
}

type baseUserMapper struct{}

func NewUserMapper() UserMapper {
	return baseUserMapper{}
}

func (baseUserMapper) Map(row UserRow) model.BaseUser {
	return model.BaseUser{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Mi:        row.Mi,
		AvatarURL: row.AvatarURL,
	}
}

// messageRow is scanned by column name, so procedure column order does not matter.
// TotalCount is only present on paged result sets.
type messageRow struct {
	ID           int        `gorm:"column:Id"`
	Message      string     `gorm:"column:Message"`
	Subject      *string    `gorm:"column:Subject"`
	Recipient    UserRow    `gorm:"embedded;embeddedPrefix:Recipient"`
	Sender       UserRow    `gorm:"embedded;embeddedPrefix:Sender"`
	DateSent     *time.Time `gorm:"column:DateSent"`
	DateRead     *time.Time `gorm:"column:DateRead"`
	DateCreated  time.Time  `gorm:"column:DateCreated"`
	DateModified time.Time  `gorm:"column:DateModified"`
	TotalCount   int        `gorm:"column:TotalCount"`
}

func (r messageRow) toModel(users UserMapper) model.Message {
	return model.Message{
		ID:           r.ID,
		Content:      r.Message,
		Subject:      r.Subject,
		Recipient:    users.Map(r.Recipient),
		Sender:       users.Map(r.Sender),
		DateSent:     r.DateSent,
		DateRead:     r.DateRead,
		DateCreated:  r.DateCreated,
		DateModified: r.DateModified,
	}
}
