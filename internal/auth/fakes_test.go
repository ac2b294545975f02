package auth_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/auth"
	"github.com/frahmantamala/store-auth/internal/core/events"
	"github.com/frahmantamala/store-auth/internal/user"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// cheapHasher keeps argon2 fast in tests.
func cheapHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(internal.Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func testSecurityConfig() internal.SecurityConfig {
	return internal.SecurityConfig{
		AccessTokenSecret:              "access-secret-for-tests",
		RefreshTokenSecret:             "refresh-secret-for-tests",
		EmailVerificationSecret:        "verify-secret-for-tests",
		AccessTokenDuration:            15 * time.Minute,
		RefreshTokenDuration:           7 * 24 * time.Hour,
		EmailVerificationTokenDuration: 24 * time.Hour,
	}
}

type memUserRepository struct {
	mu    sync.Mutex
	users map[string]user.User
}

func newMemUserRepository(users ...*user.User) *memUserRepository {
	r := &memUserRepository{users: make(map[string]user.User)}
	for _, u := range users {
		r.users[u.ID] = *u
	}
	return r
}

func (r *memUserRepository) get(id string) user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

func (r *memUserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *memUserRepository) FindByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepository) FindByIDAndEmail(ctx context.Context, id, email string) (*user.User, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Email != email {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepository) put(u user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *memUserRepository) update(id string, fn func(u *user.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}

func (r *memUserRepository) RecordLogin(_ context.Context, id string, at time.Time, refreshToken string) error {
	return r.update(id, func(u *user.User) {
		u.LastLoginAt = &at
		u.RefreshToken = refreshToken
	})
}

func (r *memUserRepository) ClearRefreshToken(_ context.Context, id string) error {
	return r.update(id, func(u *user.User) { u.RefreshToken = "" })
}

func (r *memUserRepository) MarkEmailVerified(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.IsEmailVerified {
		return false, nil
	}
	u.IsEmailVerified = true
	r.users[id] = u
	return true, nil
}

func (r *memUserRepository) SwapRefreshToken(_ context.Context, id, expected, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.RefreshToken != expected {
		return false, nil
	}
	u.RefreshToken = next
	r.users[id] = u
	return true, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
