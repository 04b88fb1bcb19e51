package session

import (
	"errors"
	"testing"
	"time"

	"quill-server-go/internal/domain/session/model"
)

func newTestCodec(t *testing.T, accessTTL, refreshTTL time.Duration) *Codec {
	t.Helper()
	codec, err := NewCodec(CodecConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return codec
}

func testIdentity() *model.Identity {
	return &model.Identity{ID: 7, Email: "writer@example.com", Role: "user"}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)
	identity := testIdentity()

	for _, class := range []TokenClass{ClassAccess, ClassRefresh} {
		signed, expiresAt, err := codec.Issue(identity, class)
		if err != nil {
			t.Fatalf("Issue(%s) error: %v", class, err)
		}
		if until := time.Until(expiresAt); until <= 0 || until > codec.TTL(class) {
			t.Errorf("Issue(%s) expiry out of range: %v", class, until)
		}

		claims, err := codec.Verify(signed, class)
		if err != nil {
			t.Fatalf("Verify(%s) error: %v", class, err)
		}
		if claims.UserID != identity.ID || claims.Email != identity.Email || claims.Role != identity.Role {
			t.Errorf("claims mismatch: %+v", claims)
		}
		if claims.ID == "" {
			t.Error("expected non-empty jti")
		}
	}
}

func TestCodecClassSeparation(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)
	identity := testIdentity()

	access, _, err := codec.Issue(identity, ClassAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	refresh, _, err := codec.Issue(identity, ClassRefresh)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := codec.Verify(access, ClassRefresh); !errors.Is(err, ErrTokenSignature) {
		t.Errorf("access token verified as refresh: %v", err)
	}
	if _, err := codec.Verify(refresh, ClassAccess); !errors.Is(err, ErrTokenSignature) {
		t.Errorf("refresh token verified as access: %v", err)
	}
}

func TestCodecExpiry(t *testing.T) {
	codec := newTestCodec(t, 10*time.Millisecond, time.Hour)
	signed, _, err := codec.Issue(testIdentity(), ClassAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := codec.Verify(signed, ClassAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestCodecMalformed(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)
	if _, err := codec.Verify("not-a-token", ClassAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestCodecForeignSignature(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)
	signed, _, err := codec.Issue(testIdentity(), ClassAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	wrong, err := NewCodec(CodecConfig{
		AccessSecret:  "completely-different",
		RefreshSecret: "also-different",
	})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	if _, err := wrong.Verify(signed, ClassAccess); !errors.Is(err, ErrTokenSignature) {
		t.Errorf("expected ErrTokenSignature, got %v", err)
	}
}

func TestNewCodecRejectsSharedSecret(t *testing.T) {
	if _, err := NewCodec(CodecConfig{AccessSecret: "same", RefreshSecret: "same"}); err == nil {
		t.Error("expected error for shared secret")
	}
	if _, err := NewCodec(CodecConfig{}); err == nil {
		t.Error("expected error for empty secrets")
	}
}
