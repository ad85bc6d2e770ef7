package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/store"
)

const statusActive = "ACTIVE"

var writeRoles = map[string]bool{
	models.RoleSuperAdmin:    true,
	models.RoleContentAdmin:  true,
	models.RoleContentEditor: true,
}

// HasWriteAccess reports whether role may use the admin dashboard.
func HasWriteAccess(role string) bool {
	return writeRoles[role]
}

// ValidRole reports whether role is one of the four profile roles.
func ValidRole(role string) bool {
	return writeRoles[role] || role == models.RoleViewer
}

// Session is what the rest of the app knows about a signed-in user.
type Session struct {
	User           models.User    `json:"user"`
	Profile        models.Profile `json:"profile"`
	HasWriteAccess bool           `json:"hasWriteAccess"`
}

type Identity struct {
	accounts store.Accounts
	tokens   TokenService

	mu          sync.Mutex
	subscribers map[int]func(Session)
	nextSub     int
}

func NewIdentity(accounts store.Accounts, tokens TokenService) *Identity {
	return &Identity{
		accounts:    accounts,
		tokens:      tokens,
		subscribers: map[int]func(Session){},
	}
}

// Subscribe is called with the new session whenever a user's role changes.
func (i *Identity) Subscribe(fn func(Session)) func() {
	i.mu.Lock()
	id := i.nextSub
	i.nextSub++
	i.subscribers[id] = fn
	i.mu.Unlock()
	return func() {
		i.mu.Lock()
		delete(i.subscribers, id)
		i.mu.Unlock()
	}
}

func (i *Identity) notify(session Session) {
	i.mu.Lock()
	subs := make([]func(Session), 0, len(i.subscribers))
	for _, fn := range i.subscribers {
		subs = append(subs, fn)
	}
	i.mu.Unlock()
	for _, fn := range subs {
		fn(session)
	}
}

// SessionFor loads the user and profile behind userID.
func (i *Identity) SessionFor(ctx context.Context, userID string) (Session, error) {
	user, err := i.accounts.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrUnauthorized("Authentication failed")
		}
		return Session{}, err
	}
	if user.Status != statusActive {
		return Session{}, ErrForbidden("Account is disabled")
	}
	profile, err := i.accounts.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			profile = models.Profile{UserID: userID, Email: user.Email, Role: models.RoleViewer}
		} else {
			return Session{}, err
		}
	}
	return Session{User: user, Profile: profile, HasWriteAccess: HasWriteAccess(profile.Role)}, nil
}

// Authenticate resolves a bearer access token to a fresh session.
func (i *Identity) Authenticate(ctx context.Context, accessToken string) (Session, error) {
	claims, err := i.tokens.Parse(accessToken, tokenAccess)
	if err != nil {
		return Session{}, ErrUnauthorized("Authentication failed")
	}
	return i.SessionFor(ctx, claims.Subject)
}

func (i *Identity) Login(ctx context.Context, email, password string) (Session, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return Session{}, TokenPair{}, ErrBadRequest("Email and password are required")
	}
	user, err := i.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, TokenPair{}, ErrUnauthorized("Authentication failed")
		}
		return Session{}, TokenPair{}, err
	}
	if !i.tokens.VerifyPassword(password, user.PasswordHash) {
		return Session{}, TokenPair{}, ErrUnauthorized("Authentication failed")
	}
	session, err := i.SessionFor(ctx, user.ID)
	if err != nil {
		return Session{}, TokenPair{}, err
	}
	pair, err := i.tokens.Issue(user.ID, user.Email, session.Profile.Role)
	if err != nil {
		return Session{}, TokenPair{}, err
	}
	now := time.Now().UTC()
	if err := i.accounts.SetLastLogin(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Str("user", user.ID).Msg("set last login failed")
	} else {
		session.User.LastLoginAt = &now
	}
	return session, pair, nil
}

// Refresh trades a refresh token for a new pair.
func (i *Identity) Refresh(ctx context.Context, refreshToken string) (Session, TokenPair, error) {
	claims, err := i.tokens.Parse(refreshToken, tokenRefresh)
	if err != nil {
		return Session{}, TokenPair{}, ErrUnauthorized("Authentication failed")
	}
	session, err := i.SessionFor(ctx, claims.Subject)
	if err != nil {
		return Session{}, TokenPair{}, err
	}
	pair, err := i.tokens.Issue(session.User.ID, session.User.Email, session.Profile.Role)
	if err != nil {
		return Session{}, TokenPair{}, err
	}
	return session, pair, nil
}

func (i *Identity) Profiles(ctx context.Context) ([]models.Profile, error) {
	return i.accounts.ListProfiles(ctx)
}

// SetRole changes a user's role. Only super admins may do this, and not on
// their own account.
func (i *Identity) SetRole(ctx context.Context, actor Session, userID, role string) (Session, error) {
	if actor.Profile.Role != models.RoleSuperAdmin {
		return Session{}, ErrForbidden("Not allowed")
	}
	role = strings.TrimSpace(role)
	if !ValidRole(role) {
		return Session{}, ErrBadRequest("Unknown role")
	}
	if actor.User.ID == userID && role != models.RoleSuperAdmin {
		return Session{}, ErrBadRequest("You cannot remove your own super admin role")
	}
	if err := i.accounts.SetRole(ctx, userID, role); err != nil {
		return Session{}, notFoundOr(err, "Profile not found")
	}
	session, err := i.SessionFor(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	i.notify(session)
	return session, nil
}

// CreateUser registers an account with the given role.
func (i *Identity) CreateUser(ctx context.Context, email, password, fullName, role string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return Session{}, ErrBadRequest("A valid email is required")
	}
	if len(password) < 8 {
		return Session{}, ErrBadRequest("Password must be at least 8 characters")
	}
	if !ValidRole(role) {
		return Session{}, ErrBadRequest("Unknown role")
	}
	hash, err := i.tokens.HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	user := models.User{Email: email, PasswordHash: hash, Status: statusActive}
	profile := models.Profile{FullName: optional(fullName), Role: role}
	if err := i.accounts.InsertUser(ctx, &user, profile); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return Session{}, ErrConflict("User already exists")
		}
		return Session{}, err
	}
	return i.SessionFor(ctx, user.ID)
}

// EnsureSuperAdmin creates the bootstrap account once. Blank credentials skip
// seeding.
func (i *Identity) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil
	}
	if _, err := i.accounts.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	_, err := i.CreateUser(ctx, email, password, "Administrator", models.RoleSuperAdmin)
	if err == nil {
		log.Info().Str("email", email).Msg("seeded super admin")
	}
	return err
}
