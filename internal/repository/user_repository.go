package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"gorm.io/gorm"
)

type NewUser struct {
	Email     string
	FirstName string
	LastName  string
	Mi        *string
	AvatarURL *string
}

// UserRepository covers the Users rows messages point at. Only seeding writes them.
type UserRepository interface {
	Ensure(ctx context.Context, u NewUser) (int, error)
	Count(ctx context.Context) (int64, error)
	SetDB(db *gorm.DB)
}

type userRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewUserRepository(db *gorm.DB) UserRepository {
	r := &userRepository{}
	r.db.Store(db)
	return r
}

func (r *userRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}

// Ensure inserts the user unless the email already exists and returns its id.
func (r *userRepository) Ensure(ctx context.Context, u NewUser) (int, error) {
	conn := r.db.Load()
	if conn == nil {
		return 0, ErrDBNotReady
	}
	db := conn.WithContext(ctx)
	if err := db.Exec(
		"INSERT IGNORE INTO Users (Email, FirstName, LastName, Mi, AvatarUrl) VALUES (?, ?, ?, ?, ?)",
		u.Email, u.FirstName, u.LastName, u.Mi, u.AvatarURL,
	).Error; err != nil {
		return 0, fmt.Errorf("insert user %s: %w", u.Email, err)
	}
	var id int
	if err := db.Raw("SELECT Id FROM Users WHERE Email = ?", u.Email).Row().Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup user %s: %w", u.Email, err)
	}
	return id, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	db := r.db.Load()
	if db == nil {
		return 0, ErrDBNotReady
	}
	var n int64
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM Users").Row().Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
