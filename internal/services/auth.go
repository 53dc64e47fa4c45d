package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/mail"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/security"
	"task-tracker/backend/internal/store"

	"go.uber.org/zap"
)

const invalidCredentials = "Invalid email or password"

type RegisterInput struct {
	FirstName       string `validate:"required,max=100"`
	LastName        string `validate:"required,max=100"`
	Age             int    `validate:"gte=13,lte=150"`
	Email           string `validate:"required,email,max=254"`
	Password        string
	ConfirmPassword string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	User    *models.User
	Session security.Token
}

type ResetPasswordInput struct {
	Email           string
	Token           string
	Password        string
	ConfirmPassword string
}

// UpdateProfileInput holds the editable profile fields; nil means unchanged.
type UpdateProfileInput struct {
	FirstName *string `validate:"omitempty,min=1,max=100"`
	LastName  *string `validate:"omitempty,min=1,max=100"`
	Age       *int    `validate:"omitempty,gte=13,lte=150"`
	Email     *string `validate:"omitempty,email,max=254"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string)
	VerifySession(ctx context.Context, rawToken string) (*security.Claims, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in ResetPasswordInput) error
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error)
}

type AuthConfig struct {
	SessionTTL time.Duration
	ResetTTL   time.Duration
	ResetURL   string
}

type AuthServiceImpl struct {
	users    store.Repository[models.User]
	hasher   security.PasswordHasher
	tokens   *security.TokenService
	denylist security.Denylist
	mailer   mail.Mailer
	cfg      AuthConfig
	logger   *zap.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users store.Repository[models.User],
	hasher security.PasswordHasher,
	tokens *security.TokenService,
	denylist security.Denylist,
	mailer mail.Mailer,
	cfg AuthConfig,
	log *zap.Logger,
) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		denylist: denylist,
		mailer:   mailer,
		cfg:      cfg,
		logger:   log.Named("auth"),
		now:      time.Now,
	}
}

func (s *AuthServiceImpl) log(ctx context.Context) *zap.Logger {
	return logger.WithRequestID(ctx, s.logger)
}

func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := checkNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.users.FindOne(ctx, store.Where(store.Eq(store.FieldEmail, in.Email))); err == nil {
		return nil, apperrors.Conflict("Email is already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	id, err := models.NewID()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		ID:           id,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Age:          in.Age,
		Email:        in.Email,
		PasswordHash: digest,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict("Email is already in use")
		}
		return nil, apperrors.Internal(err)
	}

	s.log(ctx).Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := models.NormalizeEmail(in.Email)

	user, err := s.users.FindOne(ctx, store.Where(store.Eq(store.FieldEmail, email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same bcrypt time as a real check.
			s.hasher.Verify(in.Password, s.dummyDigest())
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, apperrors.Internal(err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.log(ctx).Info("login rejected", zap.String("user_id", user.ID))
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	tok, err := s.tokens.Issue(user.ID, security.PurposeSession, s.cfg.SessionTTL)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.log(ctx).Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{User: user, Session: tok}, nil
}

func (s *AuthServiceImpl) dummyDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("dummy-Passw0rd!")
		if err == nil {
			s.dummyHash = digest
		}
	})
	return s.dummyHash
}

// Logout revokes the presented session when it is still valid. It never
// fails: an unusable token has nothing left to revoke.
func (s *AuthServiceImpl) Logout(ctx context.Context, rawToken string) {
	if rawToken == "" || s.denylist == nil {
		return
	}

	claims, err := s.tokens.Verify(rawToken, security.PurposeSession)
	if err != nil {
		return
	}

	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.log(ctx).Warn("session revocation failed", zap.String("user_id", claims.Subject), zap.Error(err))
		return
	}
	s.log(ctx).Info("user logged out", zap.String("user_id", claims.Subject))
}

func (s *AuthServiceImpl) VerifySession(ctx context.Context, rawToken string) (*security.Claims, error) {
	if rawToken == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	claims, err := s.tokens.Verify(rawToken, security.PurposeSession)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired session")
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if revoked {
			return nil, apperrors.Unauthorized("Invalid or expired session")
		}
	}

	return claims, nil
}

// ForgotPassword returns nil for unknown emails so callers cannot tell
// registered addresses apart.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)

	user, err := s.users.FindOne(ctx, store.Where(store.Eq(store.FieldEmail, email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Debug("password reset requested for unknown email")
			return nil
		}
		return apperrors.Internal(err)
	}

	tok, err := s.tokens.Issue(user.ID, security.PurposePasswordReset, s.cfg.ResetTTL)
	if err != nil {
		return apperrors.Internal(err)
	}

	_, err = s.users.Update(ctx, store.ByID(user.ID), store.Fields{
		store.FieldResetToken:          tok.Value,
		store.FieldResetTokenExpiresAt: tok.ExpiresAt.UTC(),
	})
	if err != nil {
		return apperrors.Internal(err)
	}

	msg, err := mail.PasswordResetMessage(s.cfg.ResetURL, user.Email, tok.Value)
	if err != nil {
		return apperrors.Internal(err)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log(ctx).Error("password reset email failed", zap.String("user_id", user.ID), zap.Error(err))
		return apperrors.Wrap(apperrors.KindInternal, "Could not send password reset email", err)
	}

	s.log(ctx).Info("password reset issued", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	email := models.NormalizeEmail(in.Email)
	if email == "" || in.Token == "" {
		return apperrors.InvalidOrExpiredToken()
	}

	open := store.Where(
		store.Eq(store.FieldEmail, email),
		store.Eq(store.FieldResetToken, in.Token),
		store.Gt(store.FieldResetTokenExpiresAt, s.now().UTC()),
	)
	user, err := s.users.FindOne(ctx, open)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.InvalidOrExpiredToken()
		}
		return apperrors.Internal(err)
	}

	claims, err := s.tokens.Verify(in.Token, security.PurposePasswordReset)
	if err != nil || claims.Subject != user.ID {
		return apperrors.InvalidOrExpiredToken()
	}

	if err := checkNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperrors.Internal(err)
	}

	// Matching on the token again makes a concurrent second reset lose.
	consume := store.Where(store.Eq(store.FieldID, user.ID), store.Eq(store.FieldResetToken, in.Token))
	_, err = s.users.Update(ctx, consume, store.Fields{
		store.FieldPasswordHash:        digest,
		store.FieldResetToken:          nil,
		store.FieldResetTokenExpiresAt: nil,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.InvalidOrExpiredToken()
		}
		return apperrors.Internal(err)
	}

	s.log(ctx).Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthServiceImpl) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthorized("Authentication required")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	fields := store.Fields{}
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		in.FirstName = &v
		fields[store.FieldFirstName] = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		in.LastName = &v
		fields[store.FieldLastName] = v
	}
	if in.Age != nil {
		fields[store.FieldAge] = *in.Age
	}
	if in.Email != nil {
		v := models.NormalizeEmail(*in.Email)
		in.Email = &v
		fields[store.FieldEmail] = v
	}

	if len(fields) == 0 {
		return nil, apperrors.Validation("No updatable fields provided", []string{"firstName", "lastName", "age", "email"})
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if in.Email != nil {
		existing, err := s.users.FindOne(ctx, store.Where(store.Eq(store.FieldEmail, *in.Email)))
		switch {
		case err == nil && existing.ID != userID:
			return nil, apperrors.Conflict("Email is already in use")
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, apperrors.Internal(err)
		}
	}

	user, err := s.users.Update(ctx, store.ByID(userID), fields)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, apperrors.Unauthorized("Authentication required")
		case errors.Is(err, store.ErrDuplicate):
			return nil, apperrors.Conflict("Email is already in use")
		}
		return nil, apperrors.Internal(err)
	}

	s.log(ctx).Info("profile updated", zap.String("user_id", userID))
	return user, nil
}
