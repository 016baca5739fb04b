package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sehyun-dev/taxlink/internal/domain/mandate"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
)

// UsersRepo is an in-memory drop-in for the postgres repo, used by
// tests and local runs without a database.
type UsersRepo struct {
	mu    sync.Mutex
	users map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{users: make(map[string]user.User)}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username {
			return user.User{}, user.ErrUsernameTaken
		}

		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	u.MandateStatus = mandate.Normalize(u.MandateStatus)
	r.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByUsernameOrEmail(ctx context.Context, q string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == q || u.Email == q {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, patch user.ProfilePatch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	patch.Apply(&u)
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u

	return u, nil
}

func (r *UsersRepo) UpdateMandateStatus(ctx context.Context, id string, to mandate.Status, guard func(user.User) error) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if guard != nil {
		if err := guard(u); err != nil {
			return user.User{}, err
		}
	}

	u.MandateStatus = to
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u

	return u, nil
}

func (r *UsersRepo) SetPayment(ctx context.Context, id string, status string, lastPaymentDate *time.Time) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.PaymentStatus = status
	u.LastPaymentDate = lastPaymentDate
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u

	return u, nil
}

func (r *UsersRepo) ListTaxAccountants(ctx context.Context) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]user.User, 0)

	for _, u := range r.users {
		if u.Role == user.RoleTaxAccountant {
			out = append(out, u)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (r *UsersRepo) ListMandateClients(ctx context.Context) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]user.User, 0)

	for _, u := range r.users {
		if u.Role == user.RoleClient && u.MandateStatus.Active() {
			out = append(out, u)
		}
	}

	// newest update first, matching the postgres ordering
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}
