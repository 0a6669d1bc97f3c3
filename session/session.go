package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/playstats/playstats/db"
	"go.uber.org/zap"
)

const CookieName = "session"

type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type SessionManager struct {
	db       *db.DB
	sessions map[string]*Session // in-memory cache in front of the sessions table
	ttl      time.Duration
	secure   bool
	logger   *zap.Logger
	mu       sync.RWMutex
}

func NewSessionManager(database *db.DB, ttl time.Duration, secure bool, logger *zap.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		db:       database,
		sessions: make(map[string]*Session),
		ttl:      ttl,
		secure:   secure,
		logger:   logger,
	}
}

// create a new session for a user
func (sm *SessionManager) CreateSession(userID string) (*Session, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	sessionID := base64.URLEncoding.EncodeToString(b)

	now := time.Now().UTC()
	session := &Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.ttl),
	}

	if sm.db != nil {
		err := sm.db.InsertSession(&db.SessionRow{
			ID:        session.ID,
			UserID:    session.UserID,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		})
		if err != nil {
			return nil, fmt.Errorf("storing session: %w", err)
		}
	}

	sm.mu.Lock()
	sm.sessions[sessionID] = session
	sm.mu.Unlock()

	return session, nil
}

// retrieve a session by ID
func (sm *SessionManager) GetSession(sessionID string) (*Session, bool) {
	sm.mu.RLock()
	session, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !exists && sm.db != nil {
		row, err := sm.db.GetSession(sessionID)
		if err != nil {
			sm.logger.Error("loading session", zap.Error(err))
			return nil, false
		}
		if row == nil {
			return nil, false
		}
		session = &Session{ID: row.ID, UserID: row.UserID, CreatedAt: row.CreatedAt, ExpiresAt: row.ExpiresAt}

		sm.mu.Lock()
		sm.sessions[sessionID] = session
		sm.mu.Unlock()
	}

	if session == nil {
		return nil, false
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		sm.DeleteSession(sessionID)
		return nil, false
	}
	return session, true
}

// remove a session
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.db != nil {
		if err := sm.db.DeleteSession(sessionID); err != nil {
			sm.logger.Error("deleting session", zap.Error(err))
		}
	}
}

// PurgeExpired drops expired sessions from the cache and the database.
func (sm *SessionManager) PurgeExpired() {
	now := time.Now().UTC()

	sm.mu.Lock()
	for id, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	if sm.db != nil {
		n, err := sm.db.DeleteExpiredSessions(now)
		if err != nil {
			sm.logger.Error("purging expired sessions", zap.Error(err))
			return
		}
		if n > 0 {
			sm.logger.Debug("purged expired sessions", zap.Int64("count", n))
		}
	}
}

// set a session cookie for the user
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})
}

// ClearSessionCookie clears the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// EndSession deletes the session named by the request cookie, if any, and
// clears the cookie.
func (sm *SessionManager) EndSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		sm.DeleteSession(cookie.Value)
	}
	sm.ClearSessionCookie(w)
}

func (sm *SessionManager) sessionFromRequest(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return sm.GetSession(cookie.Value)
}

// middleware that rejects requests without a valid session
func WithAuth(handler http.HandlerFunc, sm *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sm.sessionFromRequest(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}

		ctx := WithUserID(r.Context(), session.UserID)
		ctx = WithAuthStatus(ctx, true)
		handler(w, r.WithContext(ctx))
	}
}

// middleware that checks if a user is authenticated but doesn't error out if not
func WithPossibleAuth(handler http.HandlerFunc, sm *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		authenticated := false

		if session, ok := sm.sessionFromRequest(r); ok {
			ctx = WithUserID(ctx, session.UserID)
			authenticated = true
		}

		handler(w, r.WithContext(WithAuthStatus(ctx, authenticated)))
	}
}

type contextKey int

const (
	userIDKey contextKey = iota
	authStatusKey
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func WithAuthStatus(ctx context.Context, isAuthed bool) context.Context {
	return context.WithValue(ctx, authStatusKey, isAuthed)
}

func IsAuthenticated(ctx context.Context) bool {
	authed, ok := ctx.Value(authStatusKey).(bool)
	return ok && authed
}
