package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"userapi/internal/apperrors"
	"userapi/internal/metrics"
	"userapi/internal/model"
	"userapi/internal/mq"
	"userapi/internal/repository"
)

// Publisher is the slice of the MQ producer this service uses.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Service struct {
	users  repository.UserStore
	events Publisher
	log    *zap.Logger
}

func NewService(users repository.UserStore, events Publisher, log *zap.Logger) *Service {
	return &Service{
		users:  users,
		events: events,
		log:    log,
	}
}

type CreateInput struct {
	Name  string
	Email string
	Age   *int
}

type UpdateInput struct {
	Name  *string
	Email *string
	Age   *int
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Erro ao buscar usuarios", err)
	}
	return users, nil
}

// Get returns one user by id.
func (s *Service) Get(ctx context.Context, id int) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Usuario nao encontrado")
	}
	if err != nil {
		return nil, apperrors.Internal("Erro ao buscar usuario", err)
	}
	return u, nil
}

// Create adds a user without login credentials. A concurrent create with
// the same email loses on the unique index and surfaces as a conflict,
// not a 500.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.User, error) {
	if err := model.ValidateName(in.Name); err != nil {
		return nil, err
	}
	if err := model.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := model.ValidateAge(in.Age); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.Conflict("Email ja cadastrado")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Erro ao criar usuario", err)
	}

	u := &model.User{
		Name:  in.Name,
		Email: in.Email,
		Age:   in.Age,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.Conflict("Email ja cadastrado")
		}
		metrics.IncrementUserOperation("create", "failed")
		return nil, apperrors.Internal("Erro ao criar usuario", err)
	}

	s.publish(mq.UserCreated, u)
	metrics.IncrementUserOperation("create", "success")
	return u, nil
}

// Update applies a partial update. Only supplied fields change; an empty
// input still refreshes updated_at.
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := model.ValidateName(*in.Name); err != nil {
			return nil, err
		}
		u.Name = *in.Name
	}
	if in.Email != nil {
		if err := model.ValidateEmail(*in.Email); err != nil {
			return nil, err
		}
		if other, err := s.users.GetByEmail(ctx, *in.Email); err == nil && other.ID != id {
			return nil, apperrors.Conflict("Email ja cadastrado por outro usuario")
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal("Erro ao atualizar usuario", err)
		}
		u.Email = *in.Email
	}
	if in.Age != nil {
		if err := model.ValidateAge(in.Age); err != nil {
			return nil, err
		}
		u.Age = in.Age
	}

	if err := s.users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("Usuario nao encontrado")
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, apperrors.Conflict("Email ja cadastrado por outro usuario")
		}
		metrics.IncrementUserOperation("update", "failed")
		return nil, apperrors.Internal("Erro ao atualizar usuario", err)
	}

	s.publish(mq.UserUpdated, u)
	metrics.IncrementUserOperation("update", "success")
	return u, nil
}

// Delete removes a user and returns the deleted row's snapshot.
func (s *Service) Delete(ctx context.Context, id int) (*model.User, error) {
	u, err := s.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Usuario nao encontrado")
	}
	if err != nil {
		metrics.IncrementUserOperation("delete", "failed")
		return nil, apperrors.Internal("Erro ao remover usuario", err)
	}

	s.publish(mq.UserDeleted, u)
	metrics.IncrementUserOperation("delete", "success")
	return u, nil
}

// publish emits a lifecycle event. Event delivery is best effort and never
// fails the request.
func (s *Service) publish(routingKey string, u *model.User) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(routingKey, mq.NewUserEvent(u.ID, u.Email)); err != nil {
		s.log.Warn("failed to publish user event",
			zap.String("routing_key", routingKey),
			zap.Int("user_id", u.ID),
			zap.Error(err),
		)
	}
}
