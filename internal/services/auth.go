package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/notedesk/server/internal/password"
	"github.com/notedesk/server/internal/store"
	"github.com/notedesk/server/types"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateAvatar(ctx context.Context, username, avatarPath string) error
}

// AuthService implements registration, local login and federated
// login. Sessions are established by the caller after a successful
// outcome.
type AuthService struct {
	users   UserStore
	avatars *AvatarService
}

func NewAuthService(users UserStore, avatars *AvatarService) *AuthService {
	return &AuthService{users: users, avatars: avatars}
}

// Register creates a local account. The duplicate check runs before
// any hashing or avatar write, so a failed registration leaves no
// partial state. avatar may be nil.
func (s *AuthService) Register(ctx context.Context, username, plaintext string, avatar *AvatarUpload) (types.User, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return types.User{}, ErrDuplicateUser
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check username: %w", err)
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	var avatarPath string
	if avatar != nil && s.avatars != nil {
		avatarPath, err = s.avatars.Store(ctx, *avatar)
		if err != nil {
			return types.User{}, err
		}
	}

	user, err := s.users.Create(ctx, types.User{
		Username:     username,
		PasswordHash: hash,
		AvatarPath:   avatarPath,
	})
	if err != nil {
		if avatarPath != "" {
			// The insert failed, so the stored avatar has no owner.
			_ = s.avatars.Remove(ctx, avatarPath)
		}
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateUser
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies local credentials. Federated accounts carry no local
// credential and always fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, plaintext string) (types.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if user.Federated() || !password.Verify(plaintext, user.PasswordHash) {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// FederatedLogin resolves a Google identity assertion to an account,
// creating one on first login with the email as username and no local
// credential. Repeat logins with the same subject id resolve to the
// same row and pick up the provider's current profile picture.
func (s *AuthService) FederatedLogin(ctx context.Context, googleID, email, avatarURL string) (types.User, error) {
	user, err := s.users.GetByGoogleID(ctx, googleID)
	if err == nil {
		if avatarURL != "" && avatarURL != user.AvatarPath {
			if err := s.users.UpdateAvatar(ctx, user.Username, avatarURL); err != nil {
				return types.User{}, fmt.Errorf("refresh avatar: %w", err)
			}
			user.AvatarPath = avatarURL
		}
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("lookup google id: %w", err)
	}

	user, err = s.users.Create(ctx, types.User{
		Username:   email,
		GoogleID:   googleID,
		AvatarPath: avatarURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// The email collides with an existing local username.
			return types.User{}, ErrDuplicateUser
		}
		return types.User{}, fmt.Errorf("create federated user: %w", err)
	}
	return user, nil
}
