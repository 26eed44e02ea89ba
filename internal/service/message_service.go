package service

import (
	"context"
	"errors"

	"github.com/shinyyama/dm-backend/internal/model"
	"github.com/shinyyama/dm-backend/internal/repository"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("not found")

// MessageNotifier pushes a created message to connected participants.
type MessageNotifier interface {
	NotifyMessage(msg *model.Message)
}

// EventPublisher records a created message on the event stream.
type EventPublisher interface {
	PublishMessageCreated(ctx context.Context, msg *model.Message) error
}

type MessageService interface {
	Get(ctx context.Context, id int) (*model.Message, error)
	GetAll(ctx context.Context, pageIndex, pageSize int) (*model.Paged[model.Message], error)
	GetBySender(ctx context.Context, senderID, pageIndex, pageSize int) (*model.Paged[model.Message], error)
	GetByRecipient(ctx context.Context, recipientID, pageIndex, pageSize int) (*model.Paged[model.Message], error)
	Create(ctx context.Context, req *model.MessageAddRequest) (*model.Message, error)
	Update(ctx context.Context, req *model.MessageUpdateRequest) error
	Delete(ctx context.Context, id int) error
}

type messageService struct {
	repo     repository.MessageRepository
	notifier MessageNotifier
	events   EventPublisher
	log      logrus.FieldLogger
}

// NewMessageService wires the accessor with optional push and event sinks.
// Either sink may be nil.
func NewMessageService(repo repository.MessageRepository, notifier MessageNotifier, events EventPublisher, log logrus.FieldLogger) MessageService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &messageService{repo: repo, notifier: notifier, events: events, log: log}
}

func (s *messageService) Get(ctx context.Context, id int) (*model.Message, error) {
	if id < 1 {
		return nil, invalidID("id")
	}
	msg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNotFound
	}
	return msg, nil
}

func (s *messageService) GetAll(ctx context.Context, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	if err := model.ValidatePage(pageIndex, pageSize); err != nil {
		return nil, err
	}
	return found(s.repo.GetAll(ctx, pageIndex, pageSize))
}

func (s *messageService) GetBySender(ctx context.Context, senderID, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	if senderID < 1 {
		return nil, invalidID("senderId")
	}
	if err := model.ValidatePage(pageIndex, pageSize); err != nil {
		return nil, err
	}
	return found(s.repo.GetBySender(ctx, senderID, pageIndex, pageSize))
}

func (s *messageService) GetByRecipient(ctx context.Context, recipientID, pageIndex, pageSize int) (*model.Paged[model.Message], error) {
	if recipientID < 1 {
		return nil, invalidID("recipientId")
	}
	if err := model.ValidatePage(pageIndex, pageSize); err != nil {
		return nil, err
	}
	return found(s.repo.GetByRecipient(ctx, recipientID, pageIndex, pageSize))
}

func (s *messageService) Create(ctx context.Context, req *model.MessageAddRequest) (*model.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	msg, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	// Push and event delivery are best-effort; the message is already stored.
	if s.notifier != nil {
		s.notifier.NotifyMessage(msg)
	}
	if s.events != nil {
		if err := s.events.PublishMessageCreated(ctx, msg); err != nil {
			s.log.WithError(err).WithField("message_id", msg.ID).Warn("publish message.created failed")
		}
	}
	return msg, nil
}

func (s *messageService) Update(ctx context.Context, req *model.MessageUpdateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, req)
}

func (s *messageService) Delete(ctx context.Context, id int) error {
	if id < 1 {
		return invalidID("id")
	}
	return s.repo.Delete(ctx, id)
}

func found(page *model.Paged[model.Message], err error) (*model.Paged[model.Message], error) {
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrNotFound
	}
	return page, nil
}

func invalidID(field string) error {
	return &model.ValidationError{Fields: []model.FieldError{{Field: field, Message: "must be at least 1"}}}
}
