package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"auditline/internal/auth"
	"auditline/internal/db"
	"auditline/internal/log"
	"auditline/internal/models"
	"auditline/internal/store"
	"auditline/internal/validator"
	"auditline/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionInactive    = errors.New("session expired or signed out")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	EventSignedIn  = "SIGNED_IN"
	EventSignedOut = "SIGNED_OUT"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, u models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, fullName string) (int64, error)
	TouchLogin(ctx context.Context, tx store.Execer, userID string, at time.Time) error
}

type SessionStore interface {
	Create(ctx context.Context, tx store.Execer, session models.Session) error
	GetByID(ctx context.Context, sessionID string) (models.Session, error)
	Revoke(ctx context.Context, sessionID string, at time.Time) (int64, error)
}

type SettingsCreator interface {
	Create(ctx context.Context, tx store.Execer, settings models.Settings) error
}

// AuthSession is a signed-in user and the bearer token for the session.
type AuthSession struct {
	Token   string         `json:"access_token"`
	Session models.Session `json:"session"`
	User    models.User    `json:"user"`
}

type SessionEvent struct {
	Event     string
	UserID    string
	SessionID string
}

type SignUpMetadata struct {
	FullName string `json:"full_name"`
}

type SessionConfig struct {
	Secret          string
	TTL             time.Duration
	DefaultCurrency string
}

// SessionService signs users up and in, validates bearer tokens against
// stored sessions and fans session changes out to subscribers.
type SessionService struct {
	txRunner db.TxRunner
	users    UserStore
	sessions SessionStore
	settings SettingsCreator
	audit    AuditStore
	cfg      SessionConfig
	logger   *log.Logger
	now      func() time.Time

	mu          sync.RWMutex
	nextSubID   int
	subscribers map[int]func(SessionEvent)
}

func NewSessionService(txRunner db.TxRunner, users UserStore, sessions SessionStore, settings SettingsCreator, audit AuditStore, cfg SessionConfig, logger *log.Logger) *SessionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &SessionService{
		txRunner:    txRunner,
		users:       users,
		sessions:    sessions,
		settings:    settings,
		audit:       audit,
		cfg:         cfg,
		logger:      logger.WithComponent(log.ComponentSession),
		now:         time.Now,
		subscribers: make(map[int]func(SessionEvent)),
	}
}

func (s *SessionService) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (AuthSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validator.ValidateEmail(email); err != nil {
		return AuthSession{}, err
	}
	if err := validator.ValidatePassword(password); err != nil {
		return AuthSession{}, err
	}
	fullName := strings.TrimSpace(meta.FullName)
	if fullName != "" {
		if err := validator.ValidateName(fullName); err != nil {
			return AuthSession{}, err
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return AuthSession{}, err
	}
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	session := s.newSession(user.ID)
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			return err
		}
		if err := s.settings.Create(ctx, tx, models.DefaultSettings(user.ID, s.cfg.DefaultCurrency)); err != nil {
			return err
		}
		if err := s.sessions.Create(ctx, tx, session); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"email": email})
		return s.audit.Log(ctx, tx, user.ID, "signup", "user", user.ID, string(data))
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return AuthSession{}, ErrEmailTaken
		}
		return AuthSession{}, err
	}
	return s.issue(user, session)
}

func (s *SessionService) SignInWithPassword(ctx context.Context, email, password string) (AuthSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthSession{}, ErrInvalidCredentials
		}
		return AuthSession{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return AuthSession{}, ErrInvalidCredentials
	}
	session := s.newSession(user.ID)
	now := s.now().UTC()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.sessions.Create(ctx, tx, session); err != nil {
			return err
		}
		if err := s.users.TouchLogin(ctx, tx, user.ID, now); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, user.ID, "login", "session", session.ID, "{}")
	})
	if err != nil {
		return AuthSession{}, err
	}
	user.LastLoginAt = &now
	return s.issue(user, session)
}

// GetSession resolves a bearer token to its live session and user. Tokens
// of revoked or expired sessions are rejected even when the signature holds.
func (s *SessionService) GetSession(ctx context.Context, token string) (AuthSession, error) {
	claims, err := auth.ParseToken(s.cfg.Secret, token)
	if err != nil {
		return AuthSession{}, err
	}
	session, err := s.sessions.GetByID(ctx, claims.SessionID())
	if err != nil {
		return AuthSession{}, notFound(err, ErrSessionInactive)
	}
	if session.UserID != claims.UserID || !session.Active(s.now()) {
		return AuthSession{}, ErrSessionInactive
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return AuthSession{}, notFound(err, ErrUserNotFound)
	}
	return AuthSession{Token: token, Session: session, User: user}, nil
}

// SignOut revokes the session. Signing out twice is not an error.
func (s *SessionService) SignOut(ctx context.Context, userID, sessionID string) error {
	revoked, err := s.sessions.Revoke(ctx, sessionID, s.now().UTC())
	if err != nil {
		return err
	}
	if revoked > 0 {
		s.emit(SessionEvent{Event: EventSignedOut, UserID: userID, SessionID: sessionID})
	}
	return nil
}

func (s *SessionService) UpdateProfile(ctx context.Context, userID, fullName string) (models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if err := validator.ValidateName(fullName); err != nil {
		return models.User{}, err
	}
	rows, err := s.users.UpdateProfile(ctx, userID, fullName)
	if err != nil {
		return models.User{}, err
	}
	if rows == 0 {
		return models.User{}, ErrUserNotFound
	}
	return s.users.GetByID(ctx, userID)
}

// Subscribe registers fn for session changes and returns its unsubscribe.
func (s *SessionService) Subscribe(fn func(SessionEvent)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// PushTo forwards session changes to the user's open sockets so other tabs
// can react to a sign-out. It returns the unsubscribe.
func (s *SessionService) PushTo(hub SessionHub) func() {
	return s.Subscribe(func(e SessionEvent) {
		hub.BroadcastSession(e.UserID, websocket.SessionUpdate{Event: e.Event, SessionID: e.SessionID})
	})
}

func (s *SessionService) emit(e SessionEvent) {
	s.mu.RLock()
	subs := make([]func(SessionEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

func (s *SessionService) newSession(userID string) models.Session {
	now := s.now().UTC()
	return models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
}

func (s *SessionService) issue(user models.User, session models.Session) (AuthSession, error) {
	token, err := auth.GenerateToken(s.cfg.Secret, user.ID, session.ID, s.ttl())
	if err != nil {
		return AuthSession{}, err
	}
	s.logger.Info("session started", log.FieldUserID, user.ID)
	s.emit(SessionEvent{Event: EventSignedIn, UserID: user.ID, SessionID: session.ID})
	user.PasswordHash = ""
	return AuthSession{Token: token, Session: session, User: user}, nil
}

func (s *SessionService) ttl() time.Duration {
	if s.cfg.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.cfg.TTL
}
