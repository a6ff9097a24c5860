package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/repository"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

// ClientService manages the client directory tickets can be filed against.
type ClientService struct {
	clients repository.ClientRepository
}

// NewClientService constructs the service.
func NewClientService(clients repository.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

// ClientInput describes a client create/update payload.
type ClientInput struct {
	Name  string
	Email string
	Phone string
}

// ListClients returns a page of clients.
func (s *ClientService) ListClients(ctx context.Context, limit, offset int) ([]domain.Client, int64, error) {
	clients, total, err := s.clients.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return clients, total, nil
}

// GetClient loads a single client.
func (s *ClientService) GetClient(ctx context.Context, clientID int64) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("client", map[string]any{"client_id": clientID})
		}
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// CreateClient registers a new client.
func (s *ClientService) CreateClient(ctx context.Context, input ClientInput) (*domain.Client, error) {
	client := &domain.Client{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Deletable: true,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// UpdateClient edits an existing client.
func (s *ClientService) UpdateClient(ctx context.Context, clientID int64, input ClientInput) (*domain.Client, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	client.Name = input.Name
	client.Email = input.Email
	client.Phone = input.Phone
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// DeleteClient removes a client. Protected clients cannot be deleted.
func (s *ClientService) DeleteClient(ctx context.Context, clientID int64) error {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	if !client.Deletable {
		return apperrors.NewForbidden("client cannot be deleted")
	}
	return apperrors.MapError(s.clients.Delete(ctx, client.ID))
}
