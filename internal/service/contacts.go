package service

import (
	"context"
	"strings"

	"github.com/iliyamo/carparking/internal/logging"
	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository"
)

// Contacts stores support messages and announces new ones.
type Contacts struct {
	store  repository.ContactStore
	events EventPublisher
}

// NewContacts wires the service.  events may be nil.
func NewContacts(store repository.ContactStore, events EventPublisher) *Contacts {
	if store == nil {
		panic("nil store passed to NewContacts")
	}
	return &Contacts{store: store, events: events}
}

type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=100"`
	Message string `json:"message" validate:"required"`
}

func (in ContactInput) normalized() ContactInput {
	return ContactInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Message: strings.TrimSpace(in.Message),
	}
}

func (s *Contacts) Create(ctx context.Context, in ContactInput) (model.Contact, error) {
	in = in.normalized()
	if err := checkStruct(in); err != nil {
		return model.Contact{}, err
	}
	c, err := s.store.CreateContact(ctx, model.Contact{Name: in.Name, Email: in.Email, Message: in.Message})
	if err != nil {
		return model.Contact{}, err
	}
	if s.events != nil {
		if err := s.events.PublishContactCreated(ctx, c); err != nil {
			logging.Warn(ctx).Err(err).Uint64("contact_id", c.ID).Msg("publish contact.created failed")
		}
	}
	return c, nil
}

func (s *Contacts) Get(ctx context.Context, id uint64) (model.Contact, error) {
	c, err := s.store.GetContact(ctx, id)
	return c, fromStore(err, "contact")
}

func (s *Contacts) List(ctx context.Context) ([]model.Contact, error) {
	return s.store.ListContacts(ctx)
}

// Update replaces all fields of the message.
func (s *Contacts) Update(ctx context.Context, id uint64, in ContactInput) (model.Contact, error) {
	in = in.normalized()
	if err := checkStruct(in); err != nil {
		return model.Contact{}, err
	}
	c, err := s.store.UpdateContact(ctx, model.Contact{ID: id, Name: in.Name, Email: in.Email, Message: in.Message})
	return c, fromStore(err, "contact")
}

func (s *Contacts) Delete(ctx context.Context, id uint64) error {
	return fromStore(s.store.DeleteContact(ctx, id), "contact")
}

func (s *Contacts) Count(ctx context.Context) (int64, error) {
	return s.store.CountContacts(ctx)
}
