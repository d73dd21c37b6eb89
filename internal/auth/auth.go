// Package auth checks demo credentials, issues signed session tokens and
// mirrors the signed-in user to the auth-token and user-data slots.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"sync"
	"time"

	"github.com/celerix-dev/certify-one/internal/engine"
	"github.com/celerix-dev/certify-one/internal/logger"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload. Subject is the user id, ID a per-token id used
// for revocation.
type Claims struct {
	Role schema.Role `json:"role"`
	jwt.RegisteredClaims
}

type Options struct {
	// Secret signs tokens. A random secret is generated when empty, which
	// invalidates outstanding tokens on restart.
	Secret  string
	TTL     time.Duration
	Latency time.Duration
	// Cost is the bcrypt cost for the demo account secrets.
	Cost int
	Now  func() time.Time
}

type account struct {
	user schema.User
	hash []byte
}

// Authenticator is the session store. It holds at most one current user.
type Authenticator struct {
	slots   engine.SlotStore
	log     *logger.Logger
	secret  []byte
	ttl     time.Duration
	latency time.Duration
	now     func() time.Time

	accounts map[string]account
	byID     map[string]schema.User
	// dummy is compared against for unknown usernames so both failure paths cost the same.
	dummy []byte

	mu      sync.RWMutex
	current *schema.User
	token   string
	// revoked maps the id of a logged-out token to its expiry.
	revoked map[string]time.Time
}

// New builds an Authenticator and restores a previous session from slots.
func New(ctx context.Context, slots engine.SlotStore, log *logger.Logger, opts Options) (*Authenticator, error) {
	if log == nil {
		log = logger.Nop()
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &Authenticator{
		slots:    slots,
		log:      log.With("component", "Authenticator"),
		ttl:      opts.TTL,
		latency:  opts.Latency,
		now:      opts.Now,
		accounts: make(map[string]account),
		byID:     make(map[string]schema.User),
		revoked:  make(map[string]time.Time),
	}

	if opts.Secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, errors.Wrap(err, "generate token secret")
		}
		a.secret = buf
		a.log.Warn("No JWT secret configured, tokens will not survive a restart")
	} else {
		a.secret = []byte(opts.Secret)
	}

	for _, d := range demoAccounts() {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.secret), opts.Cost)
		if err != nil {
			return nil, errors.Wrapf(err, "hash secret for %s", d.user.Username)
		}
		a.accounts[d.user.Username] = account{user: d.user, hash: hash}
		a.byID[d.user.ID] = d.user
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-account"), opts.Cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash dummy secret")
	}
	a.dummy = dummy

	a.restore(ctx)
	return a, nil
}

type demoAccount struct {
	user   schema.User
	secret string
}

func demoAccounts() []demoAccount {
	return []demoAccount{
		{
			user: schema.User{
				ID:         "1",
				Username:   "admin",
				Email:      "admin@certifyone.com",
				Role:       schema.RoleAdmin,
				FirstName:  "System",
				LastName:   "Administrator",
				Department: "IT",
			},
			secret: "admin",
		},
		{
			user: schema.User{
				ID:         "2",
				Username:   "employee",
				Email:      "john.doe@certifyone.com",
				Role:       schema.RoleEmployee,
				FirstName:  "John",
				LastName:   "Doe",
				Department: "Engineering",
			},
			secret: "employee",
		},
	}
}

// restore only checks that both slots are present. A user blob that does not
// decode clears the session.
func (a *Authenticator) restore(ctx context.Context) {
	token, tokErr := a.slots.Load(ctx, pkgengine.SlotAuthToken)
	blob, userErr := a.slots.Load(ctx, pkgengine.SlotUserData)
	if tokErr != nil || userErr != nil || len(token) == 0 {
		return
	}

	var user schema.User
	if err := json.Unmarshal(blob, &user); err != nil {
		a.log.Warn("Stored session unreadable, clearing it", "error", err)
		a.clearSlots(ctx)
		return
	}
	a.current = &user
	a.token = string(token)
	a.log.Info("Session restored", "user", user.Username)
}

// Login checks the credentials, issues a token and records the session.
// Every mismatch yields ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, secret string) (string, schema.User, error) {
	if err := ctx.Err(); err != nil {
		return "", schema.User{}, err
	}
	if a.latency > 0 {
		time.Sleep(a.latency)
	}

	acct, ok := a.accounts[username]
	hash := acct.hash
	if !ok {
		hash = a.dummy
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil || !ok {
		a.log.Info("Login rejected", "user", username)
		return "", schema.User{}, pkgengine.ErrInvalidCredentials
	}

	token, err := a.issue(acct.user)
	if err != nil {
		return "", schema.User{}, err
	}

	blob, err := json.Marshal(acct.user)
	if err != nil {
		return "", schema.User{}, errors.Wrap(err, "encode user")
	}
	saveCtx := context.WithoutCancel(ctx)
	if err := a.slots.Save(saveCtx, pkgengine.SlotAuthToken, []byte(token)); err != nil {
		return "", schema.User{}, errors.Wrapf(pkgengine.ErrPersistence, "save token: %v", err)
	}
	if err := a.slots.Save(saveCtx, pkgengine.SlotUserData, blob); err != nil {
		a.clearSlots(saveCtx)
		return "", schema.User{}, errors.Wrapf(pkgengine.ErrPersistence, "save user: %v", err)
	}

	a.mu.Lock()
	user := acct.user
	a.current = &user
	a.token = token
	a.mu.Unlock()

	a.log.Info("Login succeeded", "user", username, "role", acct.user.Role)
	return token, acct.user, nil
}

func (a *Authenticator) issue(user schema.User) (string, error) {
	now := a.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Logout revokes token and the current session token, then removes the
// session from memory and from both slots. token may be empty.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	a.mu.Lock()
	now := a.now()
	for id, exp := range a.revoked {
		if !exp.After(now) {
			delete(a.revoked, id)
		}
	}
	for _, t := range []string{a.token, token} {
		if claims, err := a.parse(t); err == nil {
			a.revoked[claims.ID] = claims.ExpiresAt.Time
		}
	}
	a.current = nil
	a.token = ""
	a.mu.Unlock()
	return a.clearSlots(context.WithoutCancel(ctx))
}

func (a *Authenticator) clearSlots(ctx context.Context) error {
	var firstErr error
	for _, name := range []string{pkgengine.SlotAuthToken, pkgengine.SlotUserData} {
		if err := a.slots.Remove(ctx, name); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(pkgengine.ErrPersistence, "remove %s: %v", name, err)
		}
	}
	return firstErr
}

// Current returns the signed-in user, if any.
func (a *Authenticator) Current() (schema.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return schema.User{}, false
	}
	return *a.current, true
}

func (a *Authenticator) IsAuthenticated() bool {
	_, ok := a.Current()
	return ok
}

// Token returns the token of the current session, or "".
func (a *Authenticator) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Verify validates a bearer token and returns the user it was issued to.
// Tokens revoked by Logout are rejected.
func (a *Authenticator) Verify(tokenString string) (schema.User, error) {
	claims, err := a.parse(tokenString)
	if err != nil {
		return schema.User{}, err
	}
	a.mu.RLock()
	_, revoked := a.revoked[claims.ID]
	a.mu.RUnlock()
	if revoked {
		return schema.User{}, errors.Wrap(pkgengine.ErrUnauthorized, "token revoked")
	}
	user, ok := a.byID[claims.Subject]
	if !ok {
		return schema.User{}, errors.Wrapf(pkgengine.ErrUnauthorized, "unknown subject %q", claims.Subject)
	}
	return user, nil
}

// parse checks signature and expiry. Tokens without an id are rejected since
// they could never be revoked.
func (a *Authenticator) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, pkgengine.ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, errors.Wrapf(pkgengine.ErrUnauthorized, "%v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, pkgengine.ErrUnauthorized
	}
	return claims, nil
}
