package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"userapi/internal/apperrors"
	"userapi/internal/metrics"
	"userapi/internal/model"
	"userapi/internal/mq"
	"userapi/internal/repository"
	"userapi/internal/util"
)

// Denylist is the slice of the revocation store this service uses.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Publisher is the slice of the MQ producer this service uses.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Service struct {
	users    repository.UserStore
	tokens   *util.TokenManager
	denylist Denylist
	events   Publisher
	log      *zap.Logger
}

func NewService(users repository.UserStore, tokens *util.TokenManager, denylist Denylist, events Publisher, log *zap.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		denylist: denylist,
		events:   events,
		log:      log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Age      *int
}

type TokenPair struct {
	Access  string
	Refresh string
}

// Register creates an account and issues its first token pair.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, *TokenPair, error) {
	if err := model.ValidateName(in.Name); err != nil {
		return nil, nil, err
	}
	if err := model.ValidateEmail(in.Email); err != nil {
		return nil, nil, err
	}
	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, nil, err
	}
	if err := model.ValidateAge(in.Age); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, nil, apperrors.Conflict("Email ja cadastrado")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.Internal("Erro ao registrar usuario", err)
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, nil, apperrors.Internal("Erro ao registrar usuario", err)
	}

	u := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Age:          in.Age,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, nil, apperrors.Conflict("Email ja cadastrado")
		}
		metrics.IncrementUserOperation("register", "failed")
		return nil, nil, apperrors.Internal("Erro ao registrar usuario", err)
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, nil, err
	}

	if s.events != nil {
		if err := s.events.Publish(mq.UserRegistered, mq.NewUserEvent(u.ID, u.Email)); err != nil {
			s.log.Warn("failed to publish user event",
				zap.String("routing_key", mq.UserRegistered),
				zap.Int("user_id", u.ID),
				zap.Error(err),
			)
		}
	}

	metrics.IncrementUserOperation("register", "success")
	return u, pair, nil
}

// Login checks credentials and issues a fresh token pair. The same 401
// comes back whether the email is unknown or the password is wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	if email == "" || password == "" {
		return nil, nil, apperrors.Validation("Email e senha sao obrigatorios")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		metrics.IncrementUserOperation("login", "failed")
		return nil, nil, apperrors.Auth("Email ou senha invalidos")
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		metrics.IncrementUserOperation("login", "failed")
		return nil, nil, apperrors.Auth("Email ou senha invalidos")
	}

	if !u.IsActive {
		return nil, nil, apperrors.Auth("Usuario inativo")
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, nil, err
	}

	metrics.IncrementUserOperation("login", "success")
	return u, pair, nil
}

// Refresh verifies a refresh token and mints a new access token. The user
// behind the token must still exist and be active.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.verify(ctx, refreshToken, util.TokenRefresh)
	if err != nil {
		return "", err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil || !u.IsActive {
		return "", apperrors.Auth("Usuario nao encontrado ou inativo")
	}

	access, err := s.tokens.Generate(u.ID, util.TokenAccess)
	if err != nil {
		return "", apperrors.Internal("Erro ao renovar token", err)
	}
	return access, nil
}

// VerifyAccess validates an access token for the auth middleware,
// including the revocation check.
func (s *Service) VerifyAccess(ctx context.Context, token string) (*util.Claims, error) {
	return s.verify(ctx, token, util.TokenAccess)
}

// CurrentUser loads the user an access token belongs to.
func (s *Service) CurrentUser(ctx context.Context, userID int) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Usuario nao encontrado")
	}
	if err != nil {
		return nil, apperrors.Internal("Erro ao buscar usuario", err)
	}
	return u, nil
}

// Logout revokes the presented access token for the remainder of its
// life. Revoking an already-revoked token is still a success.
func (s *Service) Logout(ctx context.Context, claims *util.Claims) error {
	if err := s.denylist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		return apperrors.Internal("Erro ao realizar logout", err)
	}
	return nil
}

func (s *Service) issuePair(userID int) (*TokenPair, error) {
	access, refresh, err := s.tokens.GeneratePair(userID)
	if err != nil {
		return nil, apperrors.Internal("Erro ao gerar tokens", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Service) verify(ctx context.Context, token, kind string) (*util.Claims, error) {
	claims, err := s.tokens.Parse(token, kind)
	if err != nil {
		return nil, apperrors.Auth("Token invalido")
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal("Erro ao validar token", err)
	}
	if revoked {
		return nil, apperrors.Auth("Token invalido")
	}

	return claims, nil
}
