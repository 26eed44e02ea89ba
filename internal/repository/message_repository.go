package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/shinyyama/dm-backend/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type MessageRepository interface {
	Get(ctx context.Context, id int) (*model.Message, error)
	GetAll(ctx context.Context, pageIndex, pageSize int) (*model.Paged[model.Message], error)
	GetBySender(ctx context.Context, senderID, pageIndex, pageSize int) (*model.Paged[model.Message], error)
	GetByRecipient(ctx context.Context, recipientID, pageIndex, pageSize int) (*model.Paged[model.Message], error)
	Create(ctx context.Context, req *model.MessageAddRequest) (*model.Message, error)
	Update(ctx context.Context, req *model.MessageUpdateRequest) error
	Delete(ctx context.Context, id int) error
	SetDB(db *gorm.DB)
}

type messageRepository struct {
	db    atomic.Pointer[gorm.DB]
	users UserMapper
}

func NewMessageRepository(db *gorm.DB, users UserMapper) MessageRepository {
	if users == nil {
		users = NewUserMapper()
	}
	r := &messageRepository{users: users}
	r.db.Store(db)
	return r
}

// SetDB may run while requests are in flight.
func (r *messageRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}

// Get returns nil, nil when no message has the id.
func (r *messageRepository) Get(ctx context.Context, id int) (*model.Message, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	rows, err := db.WithContext(ctx).Raw("CALL Messages_Select_ById_V2(?)", id).Rows()
	if err != nil {
		return nil, fmt.Errorf("select message %d: %w", id, err)
	}
	defer rows.Close()

	var msg *model.Message
	for rows.Next() {
		var row messageRow
		if err := db.ScanRows(rows, &row); err != nil {
			return nil, fmt.Errorf("scan message %d: %w", id, err)
		}
		if msg == nil {
			m := row.toModel(r.users)
			msg = &m
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select message %d: %w", id, err)
	}
	return msg, nil
}

func (r *messageRepository) GetAll(ctx context.Context, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	return r.page(ctx, "Messages_SelectAll_V2", pageIndex, pageSize)
}

func (r *messageRepository) GetBySender(ctx context.Context, senderID, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	return r.page(ctx, "Messages_Select_ByCreatedBy_V2", pageIndex, pageSize, senderID)
}

func (r *messageRepository) GetByRecipient(ctx context.Context, recipientID, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	return r.page(ctx, "Messages_Select_ByRecipientId_V2", pageIndex, pageSize, recipientID)
}

// page calls a paged procedure whose leading parameters are filter, then
// pageIndex and pageSize. An empty page is returned as nil, nil.
func (r *messageRepository) page(ctx context.Context, proc string, pageIndex, pageSize int, filter ...any) (*model.Paged[model.Message], error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	args := append(filter, pageIndex, pageSize)
	query := "CALL " + proc + "(" + placeholders(len(args)) + ")"

	rows, err := db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", proc, err)
	}
	defer rows.Close()

	var (
		list       []model.Message
		totalCount int
	)
	for rows.Next() {
		var row messageRow
		if err := db.ScanRows(rows, &row); err != nil {
			return nil, fmt.Errorf("%s scan: %w", proc, err)
		}
		if list == nil {
			totalCount = row.TotalCount
		}
		list = append(list, row.toModel(r.users))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", proc, err)
	}
	if list == nil {
		return nil, nil
	}
	return model.NewPaged(list, pageIndex, pageSize, totalCount), nil
}

// Create inserts through Messages_Insert and returns the stored message.
// The OUT parameter lands in the session variable @Id, so the call and the
// read must share one connection.
func (r *messageRepository) Create(ctx context.Context, req *model.MessageAddRequest) (*model.Message, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var id sql.NullInt64
	err := db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		if err := tx.Exec("CALL Messages_Insert(?, ?, ?, ?, ?, ?, @Id)", commonParams(req)...).Error; err != nil {
			return err
		}
		return tx.Raw("SELECT @Id").Row().Scan(&id)
	})
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if !id.Valid || id.Int64 == 0 {
		return nil, errors.New("insert message: no id returned")
	}

	msg, err := r.Get(ctx, int(id.Int64))
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("insert message: message %d not readable after insert", id.Int64)
	}
	return msg, nil
}

// Update overwrites every mutable column. Concurrent updates are last writer wins.
func (r *messageRepository) Update(ctx context.Context, req *model.MessageUpdateRequest) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	args := append([]any{req.ID}, commonParams(&req.MessageAddRequest)...)
	if err := db.WithContext(ctx).Exec("CALL Messages_Update(?, ?, ?, ?, ?, ?, ?)", args...).Error; err != nil {
		return fmt.Errorf("update message %d: %w", req.ID, err)
	}
	return nil
}

// Delete succeeds whether or not the id exists.
func (r *messageRepository) Delete(ctx context.Context, id int) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	if err := db.WithContext(ctx).Exec("CALL Messages_Delete_ById(?)", id).Error; err != nil {
		return fmt.Errorf("delete message %d: %w", id, err)
	}
	return nil
}

// commonParams binds Message, Subject, RecipientId, SenderId, DateSent, DateRead.
// Empty subject and absent dates are sent as NULL.
func commonParams(req *model.MessageAddRequest) []any {
	var subject, sent, read any
	if req.Subject != nil && *req.Subject != "" {
		subject = *req.Subject
	}
	if req.DateSent != nil {
		sent = req.DateSent.UTC()
	}
	if req.DateRead != nil {
		read = req.DateRead.UTC()
	}
	return []any{strings.TrimSpace(req.Message), subject, req.RecipientID, req.SenderID, sent, read}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
