package httptransport

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestGuardAcceptsCookieAndBearer(t *testing.T) {
	h := newHarness(t)
	h.register(t, "user@example.com", "password123")
	access, _ := h.login(t, "user@example.com", "password123")

	rec := h.do(t, http.MethodGet, "/api/auth/me", nil, withCookie(accessCookieName, access))
	if rec.Code != http.StatusOK {
		t.Errorf("cookie auth = %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/api/auth/me", nil, withBearer(access))
	if rec.Code != http.StatusOK {
		t.Errorf("bearer auth = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGuardCookieOutranksHeader(t *testing.T) {
	h := newHarness(t)
	h.register(t, "user@example.com", "password123")
	access, _ := h.login(t, "user@example.com", "password123")

	// A valid bearer token does not rescue a bad cookie.
	rec := h.do(t, http.MethodGet, "/api/auth/me", nil,
		withCookie(accessCookieName, "garbage"),
		withBearer(access))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad cookie with good header = %d, want 401", rec.Code)
	}
}

func TestGuardRejectionsAreUniform(t *testing.T) {
	h := newHarness(t)
	h.register(t, "user@example.com", "password123")
	access, refresh := h.login(t, "user@example.com", "password123")

	// Revoke so the refresh token is signature-valid but dead.
	rec := h.do(t, http.MethodPost, "/api/auth/logout", nil,
		withBearer(access), withCookie(refreshCookieName, refresh))
	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d", rec.Code)
	}

	var messages []string
	for name, mutators := range map[string][]func(*http.Request){
		"missing":   nil,
		"malformed": {withBearer("not-a-token")},
		"revoked":   {withCookie(refreshCookieName, refresh)},
	} {
		rec := h.do(t, http.MethodPost, "/api/auth/refresh", nil, mutators...)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s token = %d, want 401", name, rec.Code)
		}
		var body APIResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s response: %v", name, err)
		}
		messages = append(messages, body.Message)
	}

	for _, msg := range messages {
		if msg != messages[0] {
			t.Errorf("rejection messages differ: %q vs %q", msg, messages[0])
		}
	}
}

func TestGuardRoleRequired(t *testing.T) {
	h := newHarness(t)
	h.register(t, "user@example.com", "password123")
	access, _ := h.login(t, "user@example.com", "password123")

	rec := h.do(t, http.MethodPost, "/api/auth/admin/clean-expired-tokens", nil, withBearer(access))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin on admin route = %d, want 403", rec.Code)
	}
	rec = h.do(t, http.MethodGet, "/api/admin/system", nil, withBearer(access))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin on system route = %d, want 403", rec.Code)
	}
}

func TestGuardAccessTokenNotValidForRefresh(t *testing.T) {
	h := newHarness(t)
	h.register(t, "user@example.com", "password123")
	access, refresh := h.login(t, "user@example.com", "password123")

	rec := h.do(t, http.MethodPost, "/api/auth/refresh", nil, withBearer(access))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("access token on refresh route = %d, want 401", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/auth/me", nil, withBearer(refresh))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh token on access route = %d, want 401", rec.Code)
	}
}
