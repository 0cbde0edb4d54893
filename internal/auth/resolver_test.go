package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func googleProfile() Profile {
	return Profile{
		ProviderID:    "google-sub-111",
		Email:         "maria@example.com",
		GivenName:     "María",
		FamilyName:    "López",
		DisplayName:   "María López",
		AvatarURL:     "https://lh3.example.com/a/foto",
		EmailVerified: true,
	}
}

func TestResolveCreatesAccount(t *testing.T) {
	users := newFakeUsers()
	r := NewResolver(users)

	u, outcome, err := r.Resolve(context.Background(), googleProfile())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("outcome: got %q, want %q", outcome, OutcomeCreated)
	}
	if u.GoogleID == nil || *u.GoogleID != "google-sub-111" {
		t.Error("google_id no quedó seteado")
	}
	if u.PasswordHash != nil {
		t.Error("cuenta social no debe tener contraseña")
	}
	if !u.EmailVerified {
		t.Error("el email viene verificado por el proveedor")
	}
	if u.IsVerified || u.IsCreator {
		t.Error("flags de plataforma deben arrancar en false")
	}
	if u.DisplayName != "María López" {
		t.Errorf("display name: got %q", u.DisplayName)
	}
}

func TestResolveMatchesByProvider(t *testing.T) {
	users := newFakeUsers()
	r := NewResolver(users)
	ctx := context.Background()

	first, _, err := r.Resolve(ctx, googleProfile())
	if err != nil {
		t.Fatalf("primer Resolve: %v", err)
	}

	// Mismo sub, incluso si el email del proveedor cambió.
	p := googleProfile()
	p.Email = "maria.nueva@example.com"
	p.AvatarURL = "https://lh3.example.com/a/foto2"

	u, outcome, err := r.Resolve(ctx, p)
	if err != nil {
		t.Fatalf("segundo Resolve: %v", err)
	}
	if outcome != OutcomeMatchedByProvider {
		t.Fatalf("outcome: got %q, want %q", outcome, OutcomeMatchedByProvider)
	}
	if u.ID != first.ID {
		t.Error("debería resolver a la misma cuenta")
	}
	// El avatar se refresca con lo último del proveedor.
	if got := users.stored(first.ID); got.AvatarURL != "https://lh3.example.com/a/foto2" {
		t.Errorf("avatar no refrescado: %q", got.AvatarURL)
	}
}

func TestResolveLinksByEmail(t *testing.T) {
	users := newFakeUsers()
	r := NewResolver(users)
	ctx := context.Background()

	// Cuenta local preexistente con contraseña.
	hash, _ := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	hashStr := string(hash)
	local := newFakeUser(t, users, "maria@example.com", nil)
	users.mu.Lock()
	users.byID[local.ID].PasswordHash = &hashStr
	users.mu.Unlock()

	u, outcome, err := r.Resolve(ctx, googleProfile())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeLinkedByEmail {
		t.Fatalf("outcome: got %q, want %q", outcome, OutcomeLinkedByEmail)
	}
	if u.ID != local.ID {
		t.Error("debería vincular la cuenta local existente")
	}
	if u.GoogleID == nil || *u.GoogleID != "google-sub-111" {
		t.Error("la cuenta no quedó vinculada")
	}
	// La vinculación conserva el hash: el login con contraseña sigue andando.
	if u.PasswordHash == nil || *u.PasswordHash != hashStr {
		t.Error("la vinculación pisó el hash de contraseña")
	}
	if !u.EmailVerified {
		t.Error("vincular marca el email como verificado")
	}
}

func TestResolveLinkIsCaseInsensitive(t *testing.T) {
	users := newFakeUsers()
	r := NewResolver(users)

	local := newFakeUser(t, users, "MARIA@example.com", nil)

	u, outcome, err := r.Resolve(context.Background(), googleProfile())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeLinkedByEmail || u.ID != local.ID {
		t.Fatalf("got (%q, %v), want vínculo con la cuenta local", outcome, u.ID)
	}
}

func TestResolveMissingEmail(t *testing.T) {
	r := NewResolver(newFakeUsers())

	p := googleProfile()
	p.Email = "   "
	if _, _, err := r.Resolve(context.Background(), p); !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("got %v, want ErrMissingEmail", err)
	}
}
