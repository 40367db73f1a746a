package backend

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"incidencias-cli/internal/model"
)

const sessionTTL = 30 * 24 * time.Hour

// sessionAuth implements credential sign-in over the users table. The
// active session is an HMAC-signed token persisted next to the database so
// separate CLI invocations stay signed in.
type sessionAuth struct {
	l      *Local
	secret []byte

	mu   sync.Mutex
	user model.User
	set  bool
}

type sessionPayload struct {
	Exp int64  `json:"exp"`
	Sub string `json:"sub"` // user id
	N   string `json:"n,omitempty"`
}

func newSessionAuth(l *Local) (*sessionAuth, error) {
	secret, err := loadOrInitSecretKey(l.dir)
	if err != nil {
		return nil, err
	}
	a := &sessionAuth{l: l, secret: secret}
	a.restore()
	return a, nil
}

func (a *sessionAuth) tokenPath() string {
	return filepath.Join(a.l.dir, "session.token")
}

func (a *sessionAuth) restore() {
	b, err := os.ReadFile(a.tokenPath())
	if err != nil {
		return
	}
	sp, err := verifyToken(a.secret, string(b))
	if err != nil {
		_ = os.Remove(a.tokenPath())
		return
	}
	u, err := a.l.userByID(context.Background(), sp.Sub)
	if err != nil {
		return
	}
	a.mu.Lock()
	a.user, a.set = u, true
	a.mu.Unlock()
}

func (a *sessionAuth) current() (model.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user, a.set
}

// SignIn checks the credentials and opens a persisted session.
func (l *Local) SignIn(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, ErrInvalidEmail
	}
	var id, salt, hash, js string
	err := l.db.QueryRowContext(ctx,
		`SELECT id, pass_salt, pass_hash, json FROM users WHERE email = ?`, email).
		Scan(&id, &salt, &hash, &js)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if subtle.ConstantTimeCompare([]byte(hashPassword(salt, password)), []byte(hash)) != 1 {
		return model.User{}, ErrWrongPassword
	}
	var u model.User
	if err := json.Unmarshal([]byte(js), &u); err != nil {
		return model.User{}, err
	}

	n, err := newNonce()
	if err != nil {
		return model.User{}, err
	}
	token, err := signToken(l.auth.secret, sessionPayload{
		Sub: u.ID,
		N:   n,
		Exp: time.Now().Add(sessionTTL).Unix(),
	})
	if err != nil {
		return model.User{}, err
	}
	if err := os.WriteFile(l.auth.tokenPath(), []byte(token+"\n"), 0o600); err != nil {
		return model.User{}, err
	}
	l.auth.mu.Lock()
	l.auth.user, l.auth.set = u, true
	l.auth.mu.Unlock()
	return u, nil
}

func (l *Local) SignOut(ctx context.Context) error {
	l.auth.mu.Lock()
	l.auth.user, l.auth.set = model.User{}, false
	l.auth.mu.Unlock()
	err := os.Remove(l.auth.tokenPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) CurrentUser(ctx context.Context) (model.User, bool) {
	return l.auth.current()
}

// RegisterUser creates a credential record. Used by the CLI's user
// management commands; not part of the Backend contract.
func (l *Local) RegisterUser(ctx context.Context, email, password, displayName string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, ErrInvalidEmail
	}
	if len(password) < 6 {
		return model.User{}, errors.New("auth: password must be at least 6 characters")
	}
	id, err := newRandomID("usr")
	if err != nil {
		return model.User{}, err
	}
	u := model.User{ID: id, Email: email, DisplayName: strings.TrimSpace(displayName)}
	raw, err := json.Marshal(u)
	if err != nil {
		return model.User{}, err
	}
	salt, err := newNonce()
	if err != nil {
		return model.User{}, err
	}
	nowMs := time.Now().UTC().UnixMilli()
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO users(id, email, pass_salt, pass_hash, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		u.ID, email, salt, hashPassword(salt, password), string(raw), nowMs)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (l *Local) userByID(ctx context.Context, id string) (model.User, error) {
	var js string
	err := l.db.QueryRowContext(ctx, `SELECT json FROM users WHERE id = ?`, id).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := json.Unmarshal([]byte(js), &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func hashPassword(salt, password string) string {
	h := sha256.Sum256([]byte(salt + ":" + password))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

func loadOrInitSecretKey(dir string) ([]byte, error) {
	path := filepath.Join(dir, "secret.key")
	if b, err := os.ReadFile(path); err == nil && len(b) > 0 {
		return []byte(strings.TrimSpace(string(b))), nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	enc := base64.RawURLEncoding.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(enc+"\n"), 0o600); err != nil {
		return nil, err
	}
	return []byte(enc), nil
}

func signToken(secret []byte, payload sessionPayload) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(p))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return p + "." + sig, nil
}

func verifyToken(secret []byte, token string) (sessionPayload, error) {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return sessionPayload{}, errors.New("invalid token format")
	}
	p, sig := parts[0], parts[1]

	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(p))
	want := mac.Sum(nil)
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(want, got) {
		return sessionPayload{}, errors.New("invalid token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(p)
	if err != nil {
		return sessionPayload{}, errors.New("invalid token payload")
	}
	var sp sessionPayload
	if err := json.Unmarshal(raw, &sp); err != nil {
		return sessionPayload{}, errors.New("invalid token payload")
	}
	if sp.Exp == 0 || time.Now().Unix() > sp.Exp {
		return sessionPayload{}, errors.New("token expired")
	}
	if strings.TrimSpace(sp.Sub) == "" {
		return sessionPayload{}, errors.New("token missing sub")
	}
	return sp, nil
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
