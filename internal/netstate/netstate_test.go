package netstate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	status := New(true)
	client := &http.Client{Transport: Transport(status, srv.Client().Transport)}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}

	status.SetOnline(false)
	if status.Online() {
		t.Fatal("still online")
	}
	if _, err := client.Get(srv.URL); !errors.Is(err, ErrOffline) {
		t.Errorf("offline Get = %v, want ErrOffline", err)
	}
}
