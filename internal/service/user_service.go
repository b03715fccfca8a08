package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/taskmanager/internal/domain"
	"github.com/vedran77/taskmanager/internal/imaging"
	"github.com/vedran77/taskmanager/internal/repository"
	"github.com/vedran77/taskmanager/pkg/validator"
)

const mailTimeout = 15 * time.Second

type UserService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	tokens   *TokenIssuer
	logger   *zap.Logger

	mailer   Mailer
	sessions SessionCache
	live     SessionCloser

	// pending tracks in-flight email goroutines so shutdown can drain them.
	pending sync.WaitGroup
}

func NewUserService(
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	tokens *TokenIssuer,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		taskRepo: taskRepo,
		tokens:   tokens,
		logger:   logger,
		sessions: noopSessions{},
	}
}

// SetMailer sets the email sender (optional dependency).
func (s *UserService) SetMailer(m Mailer) {
	s.mailer = m
}

// SetSessionCache sets the token cache (optional dependency).
func (s *UserService) SetSessionCache(c SessionCache) {
	if c == nil {
		c = noopSessions{}
	}
	s.sessions = c
}

// SetSessionCloser sets the live-connection closer (optional dependency).
func (s *UserService) SetSessionCloser(c SessionCloser) {
	s.live = c
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserInput holds the fields present in a PATCH body; nil means absent.
type UpdateUserInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"`
}

type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (s *UserService) Signup(ctx context.Context, input SignupInput) (*AuthResponse, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	password := strings.TrimSpace(input.Password)

	if err := validationError(validator.ValidateUser(name, email, input.Age, &password)); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Age:          input.Age,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, "welcome", func(ctx context.Context) error {
		return s.mailer.SendWelcome(ctx, user.Email, user.Name)
	})

	return &AuthResponse{User: user, Token: token}, nil
}

// Login never says whether the email or the password was wrong.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	email := normalizeEmail(input.Email)
	password := strings.TrimSpace(input.Password)
	if validator.ValidateLogin(email, password).HasErrors() {
		return nil, ErrInvalidCreds
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || !verifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// Authenticate resolves the user owning an active session token. A cached
// entry is only trusted while the token is still in the user's stored set;
// the cache can hold a token that was revoked after it was written.
func (s *UserService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	cachedID, hit, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		s.logger.Warn("session cache lookup failed", zap.Error(err))
	}
	if hit && cachedID == userID {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("loading user: %w", err)
		}
		if user != nil && user.HasToken(token) {
			return user, nil
		}
		s.forgetSession(ctx, token)
		return nil, ErrUnauthorized
	}
	if hit {
		s.forgetSession(ctx, token)
	}

	user, err := s.userRepo.GetByToken(ctx, userID, token)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	if err := s.sessions.Store(ctx, token, user.ID); err != nil {
		s.logger.Warn("session cache store failed", zap.Error(err))
	}
	return user, nil
}

// Logout drops only the token the request was made with.
func (s *UserService) Logout(ctx context.Context, user *domain.User, token string) error {
	if err := s.userRepo.RemoveToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	s.forgetSession(ctx, token)
	s.closeLive(user.ID, token)
	return nil
}

func (s *UserService) LogoutAll(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.ClearTokens(ctx, user.ID); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	if err := s.sessions.ForgetUser(ctx, user.ID); err != nil {
		s.logger.Warn("session cache forget failed", zap.Error(err))
	}
	s.closeLive(user.ID, "")
	return nil
}

// Update applies a partial update to targetID. Users may only update
// themselves; any other target is reported as not found.
func (s *UserService) Update(ctx context.Context, requester *domain.User, targetID uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	if targetID != requester.ID {
		return nil, ErrUserNotFound
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.Age != nil {
		user.Age = *input.Age
	}
	var password *string
	if input.Password != nil {
		p := strings.TrimSpace(*input.Password)
		password = &p
	}

	if err := validationError(validator.ValidateUser(user.Name, user.Email, user.Age, password)); err != nil {
		return nil, err
	}

	if input.Email != nil {
		existing, err := s.userRepo.GetByEmail(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != user.ID {
			return nil, ErrEmailTaken
		}
	}

	if password != nil {
		hash, err := hashPassword(*password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	return user, nil
}

// Delete removes the user's tasks, then the user, then their cached sessions.
func (s *UserService) Delete(ctx context.Context, user *domain.User) error {
	removed, err := s.taskRepo.DeleteByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("deleting tasks: %w", err)
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if err := s.sessions.ForgetUser(ctx, user.ID); err != nil {
		s.logger.Warn("session cache forget failed", zap.Error(err))
	}

	s.closeLive(user.ID, "")

	s.logger.Info("user deleted", zap.Stringer("user_id", user.ID), zap.Int64("tasks_removed", removed))

	email, name := user.Email, user.Name
	s.dispatch(ctx, "cancellation", func(ctx context.Context) error {
		return s.mailer.SendCancellation(ctx, email, name)
	})
	return nil
}

// SetAvatar resizes the uploaded image to a 250x250 PNG and stores it.
func (s *UserService) SetAvatar(ctx context.Context, userID uuid.UUID, r io.Reader) error {
	png, err := imaging.AvatarPNG(r)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedImage) {
			return ErrInvalidAvatar
		}
		return fmt.Errorf("resizing avatar: %w", err)
	}
	if err := s.userRepo.SetAvatar(ctx, userID, png); err != nil {
		return fmt.Errorf("storing avatar: %w", err)
	}
	return nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if err := s.userRepo.SetAvatar(ctx, userID, nil); err != nil {
		return nil, fmt.Errorf("clearing avatar: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	avatar, err := s.userRepo.GetAvatar(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(avatar) == 0 {
		return nil, ErrAvatarNotFound
	}
	return avatar, nil
}

// Wait blocks until every dispatched email has finished.
func (s *UserService) Wait() {
	s.pending.Wait()
}

func (s *UserService) issueToken(ctx context.Context, user *domain.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	if err := s.userRepo.AddToken(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("saving token: %w", err)
	}
	user.Tokens = append(user.Tokens, token)
	return token, nil
}

// dispatch runs send in the background, detached from the request. The
// outcome is only logged.
func (s *UserService) dispatch(ctx context.Context, kind string, send func(context.Context) error) {
	if s.mailer == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(ctx, mailTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			s.logger.Warn("email dispatch failed", zap.String("kind", kind), zap.Error(err))
			return
		}
		s.logger.Debug("email dispatched", zap.String("kind", kind))
	}()
}

func (s *UserService) forgetSession(ctx context.Context, token string) {
	if err := s.sessions.Forget(ctx, token); err != nil {
		s.logger.Warn("session cache forget failed", zap.Error(err))
	}
}

func (s *UserService) closeLive(userID uuid.UUID, token string) {
	if s.live != nil {
		s.live.CloseSessions(userID, token)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
