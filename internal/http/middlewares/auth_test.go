package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crowdspark/crowdspark-api/internal/token"
)

func testCodec(t *testing.T, opts ...token.Option) *token.Codec {
	t.Helper()
	c, err := token.New("crowdspark", "crowdspark-api", "access-secret-para-tests", "refresh-secret-para-tests", opts...)
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}
	return c
}

// fakeRefresher implementa Refresher para los tests.
type fakeRefresher struct {
	access  string
	refresh string
	err     error
	calls   int
	gotTok  string
}

func (f *fakeRefresher) RefreshTokens(_ context.Context, refreshToken string) (string, string, error) {
	f.calls++
	f.gotTok = refreshToken
	return f.access, f.refresh, f.err
}

func okHandler(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentity(r.Context())
		if !ok {
			t.Error("el handler corrió sin identidad en contexto")
		}
		if wantUserID != "" && id.UserID != wantUserID {
			t.Errorf("identity.UserID: got %q, want %q", id.UserID, wantUserID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeErrCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decodificar error: %v", err)
	}
	return body.Code
}

func TestRequireAuthValidToken(t *testing.T) {
	codec := testCodec(t)
	access, _, err := codec.MintAccess("user-1", "x@example.com", false)
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}

	h := RequireAuth(codec, nil)(okHandler(t, "user-1"))
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-New-Access-Token") != "" {
		t.Error("no debería haber renovación con token vigente")
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	h := RequireAuth(testCodec(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("el handler no debería correr")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
	if code := decodeErrCode(t, rec); code != "MISSING_TOKEN" {
		t.Errorf("code: got %q, want MISSING_TOKEN", code)
	}
}

func TestRequireAuthMalformedToken(t *testing.T) {
	ref := &fakeRefresher{access: "a", refresh: "b"}
	h := RequireAuth(testCodec(t), ref)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("el handler no debería correr")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer basura")
	req.Header.Set("X-Refresh-Token", "algo")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if code := decodeErrCode(t, rec); code != "INVALID_TOKEN" {
		t.Errorf("code: got %q, want INVALID_TOKEN", code)
	}
	// Un token malformado no habilita el fallback de renovación.
	if ref.calls != 0 {
		t.Error("el refresher no debería haberse llamado")
	}
}

func expiredAccess(t *testing.T) string {
	t.Helper()
	past := time.Now().Add(-2 * time.Hour)
	minter := testCodec(t, token.WithClock(func() time.Time { return past }))
	raw, _, err := minter.MintAccess("user-1", "x@example.com", false)
	if err != nil {
		t.Fatalf("MintAccess vencido: %v", err)
	}
	return raw
}

func TestRequireAuthRefreshFallbackHeader(t *testing.T) {
	codec := testCodec(t)
	newAccess, _, err := codec.MintAccess("user-1", "x@example.com", true)
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	ref := &fakeRefresher{access: newAccess, refresh: "nuevo-refresh"}

	h := RequireAuth(codec, ref)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetIdentity(r.Context())
		if !id.IsCreator {
			t.Error("la identidad debería venir de los claims renovados")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+expiredAccess(t))
	req.Header.Set("X-Refresh-Token", "refresh-viejo")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if ref.gotTok != "refresh-viejo" {
		t.Errorf("refresher recibió %q", ref.gotTok)
	}
	if rec.Header().Get("X-New-Access-Token") != newAccess {
		t.Error("falta X-New-Access-Token")
	}
	if rec.Header().Get("X-New-Refresh-Token") != "nuevo-refresh" {
		t.Error("falta X-New-Refresh-Token")
	}
}

func TestRequireAuthRefreshFallbackBody(t *testing.T) {
	codec := testCodec(t)
	newAccess, _, err := codec.MintAccess("user-1", "x@example.com", false)
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	ref := &fakeRefresher{access: newAccess, refresh: "nuevo-refresh"}

	var gotBody string
	h := RequireAuth(codec, ref)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// El body debe seguir legible después del peek del middleware.
		var in struct {
			RefreshToken string `json:"refreshToken"`
			Extra        string `json:"extra"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		gotBody = in.Extra
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"refreshToken":"refresh-en-body","extra":"sigue-aca"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/action", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+expiredAccess(t))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ref.gotTok != "refresh-en-body" {
		t.Errorf("refresher recibió %q, want refresh-en-body", ref.gotTok)
	}
	if gotBody != "sigue-aca" {
		t.Errorf("el body no se repuso para el handler: %q", gotBody)
	}
}

func TestRequireAuthExpiredWithoutRefresh(t *testing.T) {
	ref := &fakeRefresher{}
	h := RequireAuth(testCodec(t), ref)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("el handler no debería correr")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+expiredAccess(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if code := decodeErrCode(t, rec); code != "INVALID_TOKEN" {
		t.Errorf("code: got %q, want INVALID_TOKEN", code)
	}
	if ref.calls != 0 {
		t.Error("sin refresh token no hay llamada al refresher")
	}
}

func TestRequireAuthRefreshFails(t *testing.T) {
	ref := &fakeRefresher{err: errors.New("refresh inválido")}
	h := RequireAuth(testCodec(t), ref)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("el handler no debería correr")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+expiredAccess(t))
	req.Header.Set("X-Refresh-Token", "vencido")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
	if code := decodeErrCode(t, rec); code != "REFRESH_FAILED" {
		t.Errorf("code: got %q, want REFRESH_FAILED", code)
	}
}

func TestOptionalAuth(t *testing.T) {
	codec := testCodec(t)

	var sawIdentity bool
	h := OptionalAuth(codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawIdentity = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Sin token: sigue anónimo.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sawIdentity {
		t.Fatalf("anónimo: status %d, identidad %v", rec.Code, sawIdentity)
	}

	// Token roto: también sigue, sin identidad.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer basura")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sawIdentity {
		t.Fatalf("token roto: status %d, identidad %v", rec.Code, sawIdentity)
	}

	// Token válido: adjunta identidad.
	access, _, err := codec.MintAccess("user-1", "x@example.com", false)
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !sawIdentity {
		t.Fatalf("token válido: status %d, identidad %v", rec.Code, sawIdentity)
	}
}

func TestRequireCreator(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireCreator()(next)

	// Sin sesión: 401 AUTHENTICATION_REQUIRED.
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sin sesión: status %d, want 401", rec.Code)
	}
	if code := decodeErrCode(t, rec); code != "AUTHENTICATION_REQUIRED" {
		t.Errorf("code: got %q", code)
	}

	// Sesión sin flag de creador: 403 CREATOR_REQUIRED.
	req = httptest.NewRequest(http.MethodPost, "/api/campaigns", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: "u", IsCreator: false}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("no creador: status %d, want 403", rec.Code)
	}
	if code := decodeErrCode(t, rec); code != "CREATOR_REQUIRED" {
		t.Errorf("code: got %q", code)
	}

	// Creador: pasa.
	req = httptest.NewRequest(http.MethodPost, "/api/campaigns", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: "u", IsCreator: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("creador: status %d, want 200", rec.Code)
	}
}
