package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/wolfman30/salon-booking-web/internal/config"
	"github.com/wolfman30/salon-booking-web/internal/flow"
	"github.com/wolfman30/salon-booking-web/internal/visitor"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

func TestVisitorStoreDisabledWithoutAddr(t *testing.T) {
	for _, cfg := range []*appconfig.Config{{}, nil} {
		store := VisitorStore(context.Background(), cfg, logging.New("error"))
		if store.Enabled() {
			t.Fatalf("expected disabled store without REDIS_ADDR")
		}
		if err := store.Save(context.Background(), "v1", visitor.Record{}); err != nil {
			t.Fatalf("save on disabled store: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close on disabled store: %v", err)
		}
	}
}

func TestVisitorStorePersistsWithConfiguredTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), VisitorTTL: 2 * time.Hour}
	store := VisitorStore(context.Background(), cfg, logging.New("error"))
	if !store.Enabled() {
		t.Fatalf("expected enabled store for reachable redis")
	}
	defer store.Close()

	rec := visitor.Record{Memento: flow.Memento{View: flow.ViewSlotCalendar}}
	if err := store.Save(context.Background(), "v1", rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("visitor:state:v1"); ttl != 2*time.Hour {
		t.Fatalf("expected ttl %s, got %s", 2*time.Hour, ttl)
	}
	got, err := store.Load(context.Background(), "v1")
	if err != nil || got == nil {
		t.Fatalf("load: rec=%v err=%v", got, err)
	}
	if got.Memento.View != flow.ViewSlotCalendar {
		t.Fatalf("expected slot_calendar memento, got %q", got.Memento.View)
	}
}

func TestVisitorStoreDisabledWhenPingFails(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	store := VisitorStore(context.Background(), &appconfig.Config{RedisAddr: addr, VisitorTTL: time.Hour}, logging.New("error"))
	if store.Enabled() {
		t.Fatalf("expected disabled store when ping fails")
	}
}

func TestVisitorSigner(t *testing.T) {
	if _, err := VisitorSigner(nil, logging.New("error")); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := VisitorSigner(&appconfig.Config{Env: "production", VisitorTTL: time.Hour}, logging.New("error")); err == nil {
		t.Fatalf("expected error without secret in production")
	}
	signer, err := VisitorSigner(&appconfig.Config{Env: "development", VisitorTTL: time.Hour}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := signer.Issue("3f1c3c1e-7a55-4c3e-9a0a-6f1e2b1c0d9e")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if id, err := signer.Parse(token); err != nil || id != "3f1c3c1e-7a55-4c3e-9a0a-6f1e2b1c0d9e" {
		t.Fatalf("round trip failed: id=%q err=%v", id, err)
	}
}

func TestNewVisitorFactoryBuildsIsolatedSessions(t *testing.T) {
	cfg := &appconfig.Config{
		SalonAPIBaseURL:  "http://127.0.0.1:1",
		SalonAPITimeout:  time.Second,
		SlotPollInterval: time.Minute,
	}
	factory := NewVisitorFactory(cfg, nil, logging.New("error"))

	a := factory("a")
	b := factory("b")
	if a.ID != "a" || b.ID != "b" {
		t.Fatalf("unexpected ids %q %q", a.ID, b.ID)
	}
	if a.Controller == b.Controller || a.Slots == b.Slots {
		t.Fatalf("expected separate controllers and directories per visitor")
	}
	if a.Remote == nil || a.Slots.Interval() != time.Minute {
		t.Fatalf("expected remote client and configured poll interval")
	}
	if a.Controller.Started() {
		t.Fatalf("factory sessions must not be started")
	}
	if a.Controller.View() != flow.ViewLanding {
		t.Fatalf("expected landing view before start, got %s", a.Controller.View())
	}
}
