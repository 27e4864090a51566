package database

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var version int
	if err := db.handler.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != len(migrations) {
		t.Errorf("user_version = %d, want %d", version, len(migrations))
	}
}

func TestKVRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepo(zerolog.Nop(), newTestDB(t))

	if _, ok, err := repo.Get(ctx, "pokechu.stats"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}

	if err := repo.Set(ctx, "pokechu.stats", `{"throws":1}`); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "pokechu.stats", `{"throws":2}`); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "pokechu.captured", `[]`); err != nil {
		t.Fatal(err)
	}

	got, ok, err := repo.Get(ctx, "pokechu.stats")
	if err != nil || !ok || got != `{"throws":2}` {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}

	if err := repo.Delete(ctx, "pokechu.stats", "pokechu.captured"); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"pokechu.stats", "pokechu.captured"} {
		if _, ok, _ := repo.Get(ctx, key); ok {
			t.Errorf("%s survived Delete", key)
		}
	}
}

func TestResponseRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewResponseRepo(zerolog.Nop(), newTestDB(t))

	if err := repo.Open(ctx, "pokechu-v0-shell"); err != nil {
		t.Fatal(err)
	}

	resp := &domain.StoredResponse{
		URL:    "https://example.test/index.html",
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/html"}},
		Body:   []byte("<html>shell</html>"),
	}
	if err := repo.Put(ctx, "pokechu-v1-shell", resp); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Match(ctx, "pokechu-v1-shell", resp.URL)
	if err != nil || got == nil {
		t.Fatalf("Match = %v, %v", got, err)
	}
	if !bytes.Equal(got.Body, resp.Body) || got.Status != http.StatusOK || got.Header.Get("Content-Type") != "text/html" {
		t.Errorf("Match returned %+v", got)
	}
	if got.StoredAt.IsZero() {
		t.Error("StoredAt not populated")
	}

	if miss, err := repo.Match(ctx, "pokechu-v1-runtime", resp.URL); err != nil || miss != nil {
		t.Errorf("Match in other store = %v, %v", miss, err)
	}

	stores, err := repo.Stores(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stores) != 2 || stores[0] != "pokechu-v0-shell" || stores[1] != "pokechu-v1-shell" {
		t.Errorf("Stores = %v", stores)
	}

	existed, err := repo.DeleteStore(ctx, "pokechu-v1-shell")
	if err != nil || !existed {
		t.Fatalf("DeleteStore = %v, %v", existed, err)
	}
	if got, _ := repo.Match(ctx, "pokechu-v1-shell", resp.URL); got != nil {
		t.Error("response survived DeleteStore")
	}
	if existed, _ := repo.DeleteStore(ctx, "pokechu-v1-shell"); existed {
		t.Error("DeleteStore reported a missing store as existing")
	}
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := db.handler.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	if err := db.Ping(ctx); err == nil {
		t.Error("Ping accepted a schema version it does not know")
	}
	if err := db.Migrate(); err == nil {
		t.Error("Migrate accepted a newer schema version")
	}
}

func TestDeleteStoreCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewResponseRepo(zerolog.Nop(), db)

	if err := repo.Put(ctx, "pokechu-v1-sprites", &domain.StoredResponse{URL: "https://x/1.png", Status: 200, Body: []byte("png")}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.DeleteStore(ctx, "pokechu-v1-sprites"); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := db.handler.QueryRow("SELECT COUNT(*) FROM responses").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("responses left after delete = %d", n)
	}
}
