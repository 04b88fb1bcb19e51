package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"quill-server-go/internal/domain/session/model"
)

func newCred(userID uint, token, device string, ttl time.Duration) model.RefreshCredential {
	now := time.Now()
	return model.RefreshCredential{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceInfo: device,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

// exerciseLifecycle runs the common append/find/remove/clear contract against
// any driver.
func exerciseLifecycle(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	laptop := newCred(1, "token-laptop", "laptop", time.Hour)
	phone := newCred(1, "token-phone", "phone", time.Hour)
	other := newCred(2, "token-other", "desk", time.Hour)

	for _, cred := range []model.RefreshCredential{laptop, phone, other} {
		if err := s.Append(ctx, cred); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	got, ok, err := s.FindLive(ctx, 1, "token-laptop")
	if err != nil || !ok {
		t.Fatalf("FindLive = %v, %v, %v", got, ok, err)
	}
	if got.DeviceInfo != "laptop" {
		t.Errorf("unexpected device info: %q", got.DeviceInfo)
	}

	if ok, err := s.ExistsWithToken(ctx, 1, "token-phone"); err != nil || !ok {
		t.Fatalf("ExistsWithToken = %v, %v", ok, err)
	}
	if ok, _ := s.ExistsWithToken(ctx, 1, "token-other"); ok {
		t.Error("credential leaked across users")
	}

	// Single-device logout leaves the sibling record live.
	removed, err := s.RemoveByToken(ctx, 1, "token-laptop")
	if err != nil || !removed {
		t.Fatalf("RemoveByToken = %v, %v", removed, err)
	}
	if ok, _ := s.ExistsWithToken(ctx, 1, "token-phone"); !ok {
		t.Error("sibling credential removed by single-token logout")
	}

	// Removing an absent token is a silent no-op.
	removed, err = s.RemoveByToken(ctx, 1, "token-laptop")
	if err != nil || removed {
		t.Fatalf("second RemoveByToken = %v, %v", removed, err)
	}

	if err := s.ClearAll(ctx, 1); err != nil {
		t.Fatalf("ClearAll error: %v", err)
	}
	if ok, _ := s.ExistsWithToken(ctx, 1, "token-phone"); ok {
		t.Error("credential survived ClearAll")
	}
	if err := s.ClearAll(ctx, 1); err != nil {
		t.Fatalf("ClearAll should be idempotent: %v", err)
	}
	if ok, _ := s.ExistsWithToken(ctx, 2, "token-other"); !ok {
		t.Error("ClearAll crossed user boundary")
	}
}

// exerciseReplace runs the rotation contract against any driver.
func exerciseReplace(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	old := newCred(5, "rotate-old", "tablet", time.Hour)
	if err := s.Append(ctx, old); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	fresh := newCred(5, "rotate-new", "tablet", time.Hour)
	if err := s.Replace(ctx, 5, "rotate-old", fresh); err != nil {
		t.Fatalf("Replace error: %v", err)
	}

	if ok, _ := s.ExistsWithToken(ctx, 5, "rotate-old"); ok {
		t.Error("rotated-out token still live")
	}
	got, ok, err := s.FindLive(ctx, 5, "rotate-new")
	if err != nil || !ok {
		t.Fatalf("FindLive after rotation = %v, %v", ok, err)
	}
	if got.DeviceInfo != "tablet" {
		t.Errorf("device info lost across rotation: %q", got.DeviceInfo)
	}

	// A second rotation of the consumed token must lose.
	err = s.Replace(ctx, 5, "rotate-old", newCred(5, "rotate-loser", "tablet", time.Hour))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for consumed token, got %v", err)
	}
	if ok, _ := s.ExistsWithToken(ctx, 5, "rotate-loser"); ok {
		t.Error("losing rotation must not write its record")
	}
}

// exerciseSweep runs the expiry sweep contract against any driver.
func exerciseSweep(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	live := newCred(9, "sweep-live", "laptop", time.Hour)
	dead := newCred(9, "sweep-dead", "phone", -time.Minute)
	otherDead := newCred(10, "sweep-dead-2", "desk", -time.Hour)

	for _, cred := range []model.RefreshCredential{live, dead, otherDead} {
		if err := s.Append(ctx, cred); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	removed, err := s.SweepExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("SweepExpired error: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if ok, _ := s.ExistsWithToken(ctx, 9, "sweep-live"); !ok {
		t.Error("sweep removed a live credential")
	}

	// Second sweep with no new expirations removes nothing.
	removed, err = s.SweepExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("second SweepExpired error: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected idempotent sweep, got %d removals", removed)
	}

	// Expired records are invisible to live lookups even before the sweep.
	lazy := newCred(9, "sweep-lazy", "phone", -time.Second)
	if err := s.Append(ctx, lazy); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if ok, _ := s.ExistsWithToken(ctx, 9, "sweep-lazy"); ok {
		t.Error("expired credential reported live")
	}
}
