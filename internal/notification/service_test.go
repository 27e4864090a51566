package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
)

func TestNotify(t *testing.T) {
	var got discordWebhook
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode webhook: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), &domain.Config{Notifications: true, DiscordWebhookURL: srv.URL}, srv.Client())
	sent, err := svc.Notify(context.Background(), "It's a catch!", "Pikachu was captured.")
	if err != nil || !sent {
		t.Fatalf("Notify = %v, %v", sent, err)
	}
	if len(got.Embeds) != 1 || got.Embeds[0].Title != "It's a catch!" || got.Embeds[0].Description != "Pikachu was captured." {
		t.Errorf("webhook payload = %+v", got)
	}
}

func TestNotifyNotPermitted(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	for _, cfg := range []*domain.Config{
		{Notifications: false, DiscordWebhookURL: srv.URL},
		{Notifications: true},
	} {
		sent, err := NewService(zerolog.Nop(), cfg, srv.Client()).Notify(context.Background(), "t", "b")
		if sent || err != nil {
			t.Errorf("Notify with %+v = %v, %v", cfg, sent, err)
		}
	}
	if hits != 0 {
		t.Errorf("webhook hit %d times", hits)
	}
}

func TestNotifyWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), &domain.Config{Notifications: true, DiscordWebhookURL: srv.URL}, srv.Client())
	if sent, err := svc.Notify(context.Background(), "t", "b"); sent || err == nil {
		t.Errorf("Notify = %v, %v, want failure", sent, err)
	}
}
