package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// MessageAPI is the upstream surface for customer messages.
type MessageAPI interface {
	ListMessages(ctx context.Context) ([]catalogapi.Message, error)
	SetMessageStatus(ctx context.Context, id int, done bool) error
}

// MessageService reads messages and flips their done flag.
type MessageService struct {
	api MessageAPI
}

// NewMessageService constructs a MessageService.
func NewMessageService(api MessageAPI) *MessageService {
	return &MessageService{api: api}
}

// List fetches every message.
func (s *MessageService) List(ctx context.Context) ([]catalogapi.Message, error) {
	return s.api.ListMessages(ctx)
}

// SetDone marks message id as handled or not.
func (s *MessageService) SetDone(ctx context.Context, id int, done bool) error {
	if err := s.api.SetMessageStatus(ctx, id, done); err != nil {
		log.Error().Err(err).Int("id", id).Bool("done", done).Msg("Failed to update message status")
		return err
	}
	return nil
}
