package memory

import (
	"context"
	"sync"
	"time"

	"github.com/madialex/accounthub/internal/domain/user"
)

// UsersRepo is an in-memory store with the same contract as the postgres
// repo. Used by handler and router tests.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // keyed by ID
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}

	for id, existing := range r.items {
		if id != u.ID && existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	u.UpdatedAt = time.Now().UTC()
	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.items))

	for _, u := range r.items {
		out = append(out, u)
	}

	return out, nil
}
