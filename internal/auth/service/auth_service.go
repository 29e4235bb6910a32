package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/social-hub/internal/auth/session"
	"github.com/AlibekovAA/social-hub/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/social-hub/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
	userrepo "github.com/AlibekovAA/social-hub/internal/user/repository"
)

type AdminResolver interface {
	DesignatedAdmin(ctx context.Context) (userdomain.User, error)
}

type AdminFollower interface {
	FollowAdmin(ctx context.Context, followerID, adminID userdomain.ID) error
}

// ActivityTracker records that a user was seen. It must not block.
type ActivityTracker interface {
	Touch(userID userdomain.ID)
}

type AuthService struct {
	repo        userrepo.Repository
	sessions    session.Store
	hasher      commoncrypto.PasswordHasher
	idGenerator commoncrypto.IDGenerator
	admins      AdminResolver
	follows     AdminFollower
	activity    ActivityTracker
	validate    *validator.Validate
	clock       clock.Clock
	log         *logger.Logger
}

type Deps struct {
	Repo        userrepo.Repository
	Sessions    session.Store
	Hasher      commoncrypto.PasswordHasher
	IDGenerator commoncrypto.IDGenerator
	Admins      AdminResolver
	Follows     AdminFollower
	Activity    ActivityTracker
	Clock       clock.Clock
	Log         *logger.Logger
}

func NewAuthService(deps Deps) *AuthService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &AuthService{
		repo:        deps.Repo,
		sessions:    deps.Sessions,
		hasher:      deps.Hasher,
		idGenerator: deps.IDGenerator,
		admins:      deps.Admins,
		follows:     deps.Follows,
		activity:    deps.Activity,
		validate:    newValidator(),
		clock:       clk,
		log:         deps.Log,
	}
}

type RegisterInput struct {
	Username string `validate:"required,min=3,max=32,username"`
	Email    string `validate:"required,email,max=254"`
	Name     string `validate:"max=100"`
	Password string `validate:"required,min=8,max=72,letterdigit"`
}

type LoginInput struct {
	Identifier string
	Password   string
	// PreviousToken is the session the client presented, if any. It is
	// revoked once the new one is issued.
	PreviousToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (userdomain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	if err := s.validate.Struct(input); err != nil {
		recordRegistration("invalid")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		return userdomain.User{}, registrationError(err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		recordRegistration("error")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return userdomain.User{}, commonerrors.ErrInternalError.WithCause(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		recordRegistration("error")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_id_generation_failed",
		}).Errorf("register failed: id generation error: %v", err)
		return userdomain.User{}, commonerrors.ErrInternalError.WithCause(err)
	}

	user, err := s.repo.Create(ctx, userdomain.User{
		ID:           userdomain.ID(id),
		Username:     input.Username,
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		Role:         userdomain.RoleUser,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, userdomain.ErrUsernameTaken) || errors.Is(err, userdomain.ErrEmailTaken) {
			recordRegistration("conflict")
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_conflict",
			}).Warn("register failed: username or email already exists")
			return userdomain.User{}, err
		}
		recordRegistration("error")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_create_failed",
		}).Errorf("register failed: %v", err)
		return userdomain.User{}, commonerrors.Internal(err)
	}

	s.followDesignatedAdmin(ctx, user.ID)

	recordRegistration("success")
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "register_success",
	}).Info("register success")

	return user, nil
}

// followDesignatedAdmin is best-effort: a missing admin or a failed insert
// never fails the registration.
func (s *AuthService) followDesignatedAdmin(ctx context.Context, userID userdomain.ID) {
	if s.admins == nil || s.follows == nil {
		return
	}

	admin, err := s.admins.DesignatedAdmin(ctx)
	if err != nil {
		if errors.Is(err, userdomain.ErrNoAdmin) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(userID),
				"action":  "register_auto_follow_skipped",
			}).Debug("no admin account to follow")
			return
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(userID),
			"action":  "register_auto_follow_failed",
		}).Warnf("failed to resolve admin: %v", err)
		return
	}

	if err := s.follows.FollowAdmin(ctx, userID, admin.ID); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id":  string(userID),
			"admin_id": string(admin.ID),
			"action":   "register_auto_follow_failed",
		}).Warnf("failed to follow admin: %v", err)
	}
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (session.Session, userdomain.User, error) {
	identifier := strings.TrimSpace(input.Identifier)

	s.log.WithFields(ctx, logger.Fields{
		"identifier": identifier,
		"action":     "login_attempt",
	}).Info("login attempt")

	if identifier == "" || input.Password == "" {
		recordLogin("invalid_credentials")
		return session.Session{}, userdomain.User{}, ErrInvalidCredentials
	}

	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			recordLogin("invalid_credentials")
			s.log.WithFields(ctx, logger.Fields{
				"identifier": identifier,
				"action":     "login_user_not_found",
			}).Warn("login failed: not found")
			return session.Session{}, userdomain.User{}, ErrInvalidCredentials
		}
		recordLogin("error")
		s.log.WithFields(ctx, logger.Fields{
			"identifier": identifier,
			"action":     "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return session.Session{}, userdomain.User{}, commonerrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		recordLogin("invalid_credentials")
		fields := logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_invalid_password",
		}
		if errors.Is(err, commoncrypto.ErrPasswordMismatch) {
			s.log.WithFields(ctx, fields).Warn("login failed: invalid password")
		} else {
			s.log.WithFields(ctx, fields).Errorf("login failed: stored hash unusable: %v", err)
		}
		return session.Session{}, userdomain.User{}, ErrInvalidCredentials
	}

	sess, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		recordLogin("error")
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_session_issue_failed",
		}).Errorf("login failed: session issue error: %v", err)
		return session.Session{}, userdomain.User{}, ErrServiceUnavailable.WithCause(err)
	}
	incrementSessionsIssued()

	if input.PreviousToken != "" {
		s.revoke(ctx, input.PreviousToken, "login_previous_session")
	}

	if s.activity != nil {
		s.activity.Touch(user.ID)
	}

	recordLogin("success")
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "login_success",
	}).Info("login success")

	return sess, user, nil
}

// Resolve maps a session token back to its user. ok=false means the request
// is anonymous. A session whose user no longer exists is revoked.
func (s *AuthService) Resolve(ctx context.Context, token string) (userdomain.User, bool, error) {
	if token == "" {
		return userdomain.User{}, false, nil
	}

	userID, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		recordResolveFailure("store_error")
		return userdomain.User{}, false, err
	}
	if !ok {
		recordResolveFailure("unknown_token")
		return userdomain.User{}, false, nil
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			recordResolveFailure("user_missing")
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(userID),
				"action":  "session_user_missing",
			}).Warn("session refers to a missing user")
			s.revoke(ctx, token, "session_user_missing")
			return userdomain.User{}, false, nil
		}
		recordResolveFailure("store_error")
		return userdomain.User{}, false, err
	}

	return user, true, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout_revoke_failed",
		}).Errorf("logout failed: %v", err)
		return ErrServiceUnavailable.WithCause(err)
	}
	incrementSessionsRevoked()
	s.log.WithFields(ctx, logger.Fields{
		"action": "logout",
	}).Info("session revoked")
	return nil
}

func (s *AuthService) revoke(ctx context.Context, token, action string) {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": action,
		}).Warnf("failed to revoke session: %v", err)
		return
	}
	incrementSessionsRevoked()
}
