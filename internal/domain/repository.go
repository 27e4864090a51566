package domain

import (
	"context"
	"net/http"
	"time"
)

// KVRepository is the local durable key-value store.
type KVRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// StoredResponse is a cached network response held in a response store.
type StoredResponse struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// ResponseRepository holds named response stores keyed by request URL.
type ResponseRepository interface {
	Open(ctx context.Context, store string) error
	Match(ctx context.Context, store, url string) (*StoredResponse, error)
	Put(ctx context.Context, store string, resp *StoredResponse) error
	Stores(ctx context.Context) ([]string, error)
	DeleteStore(ctx context.Context, store string) (bool, error)
}
