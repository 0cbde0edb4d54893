package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crowdspark/crowdspark-api/internal/domain"
	"github.com/crowdspark/crowdspark-api/internal/domain/repository"
)

// fakeUsers es un repository.Users en memoria para los tests del paquete.
type fakeUsers struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*domain.User
	calls map[string]int

	// failWith fuerza un error en todas las operaciones si no es nil.
	failWith error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:  make(map[uuid.UUID]*domain.User),
		calls: make(map[string]int),
	}
}

func (f *fakeUsers) clone(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetByID"]++
	if f.failWith != nil {
		return nil, f.failWith
	}
	if u, ok := f.byID[id]; ok {
		return f.clone(u), nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetByEmail"]++
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			return f.clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetByGoogleID"]++
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.byID {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return f.clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Create"]++
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicateEmail
		}
		if u.GoogleID != nil && existing.GoogleID != nil && *existing.GoogleID == *u.GoogleID {
			return repository.ErrDuplicateGoogleID
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.byID[u.ID] = f.clone(u)
	return nil
}

func (f *fakeUsers) LinkGoogle(_ context.Context, id uuid.UUID, googleID, displayName, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["LinkGoogle"]++
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.GoogleID = &googleID
	if displayName != "" {
		u.DisplayName = displayName
	}
	if avatarURL != "" {
		u.AvatarURL = avatarURL
	}
	u.EmailVerified = true
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUsers) TouchProviderProfile(_ context.Context, id uuid.UUID, displayName, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["TouchProviderProfile"]++
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	if avatarURL != "" {
		u.AvatarURL = avatarURL
	}
	return nil
}

func (f *fakeUsers) SaveLoginArtifacts(_ context.Context, id uuid.UUID, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SaveLoginArtifacts"]++
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshToken = &refreshToken
	now := time.Now()
	u.LastLogin = &now
	return nil
}

func (f *fakeUsers) SetCreator(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SetCreator"]++
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsCreator = true
	return nil
}

// newFakeUser inserta una cuenta directamente en el fake, sin pasar por
// el servicio. googleID nil deja la cuenta como local pura.
func newFakeUser(t *testing.T, f *fakeUsers, email string, googleID *string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, GoogleID: googleID}
	if err := f.Create(context.Background(), u); err != nil {
		t.Fatalf("fake Create(%s): %v", email, err)
	}
	return u
}

// stored devuelve la copia actual de la fila, para aserciones.
func (f *fakeUsers) stored(id uuid.UUID) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return f.clone(u)
	}
	return nil
}
