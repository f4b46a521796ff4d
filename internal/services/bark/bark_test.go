package bark_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"oven/internal/notifications"
	"oven/internal/services"
	"oven/internal/services/bark"
)

const validKey = "AbCdEfGhIjKlMnOpQrStUv"

func TestNewValidatesDeviceKeyLength(t *testing.T) {
	if len(validKey) != 22 {
		t.Fatalf("fixture key has %d characters", len(validKey))
	}
	if _, err := bark.New(bark.Config{APIKey: validKey}); err != nil {
		t.Fatalf("22-character key rejected: %v", err)
	}
	_, err := bark.New(bark.Config{APIKey: validKey[:21]})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("21-character key: expected configuration error, got %v", err)
	}
}

func TestNewRejectsMalformedKeys(t *testing.T) {
	keys := []string{"", validKey + "x", "AbCdEfGhIjKlMnOpQrSt-v", "unset", "UNSETunsetUNSETunsetUN"}
	for _, key := range keys {
		_, err := bark.New(bark.Config{APIKey: key, Placeholder: "unset"})
		if !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("key %q: expected configuration error, got %v", key, err)
		}
	}
}

func TestNotifySendsCompactBody(t *testing.T) {
	var body, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"code":200,"message":"success","timestamp":1}`))
	}))
	defer srv.Close()

	b, err := bark.New(bark.Config{
		Name:     "phone",
		APIKey:   validKey,
		BaseURL:  srv.URL + "/",
		Timeout:  time.Second,
		Sound:    "minuet",
		Badge:    2,
		AutoCopy: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := b.Notify(context.Background(), notifications.Payload{Title: "🔔 Done @ lab", Body: "ok", Status: notifications.StatusError})
	if res.HasError {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if path != "/"+validKey {
		t.Fatalf("path = %q", path)
	}
	want := `{"title":"🔔 Done @ lab","body":"ok","sound":"minuet","level":"timeSensitive","badge":2,"autoCopy":"1"}`
	if body != want {
		t.Fatalf("body = %s\nwant   %s", body, want)
	}
}

func TestNotifyEmbeddedErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":400,"message":"failed to get device token"}`))
	}))
	defer srv.Close()

	b, err := bark.New(bark.Config{APIKey: validKey, BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := b.Notify(context.Background(), notifications.Payload{Title: "x"})
	if !res.HasError || !strings.Contains(res.Error, "failed to get device token") {
		t.Fatalf("expected embedded error to fail, got %+v", res)
	}
}

func TestNotifyHTTPErrorUsesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":400,"message":"bad key"}`))
	}))
	defer srv.Close()

	b, _ := bark.New(bark.Config{APIKey: validKey, BaseURL: srv.URL})
	res := b.Notify(context.Background(), notifications.Payload{Title: "x"})
	if !res.HasError || !strings.Contains(res.Error, "400") || !strings.Contains(res.Error, "bad key") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestNotifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	b, _ := bark.New(bark.Config{APIKey: validKey, BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	res := b.Notify(context.Background(), notifications.Payload{Title: "x"})
	if !res.HasError {
		t.Fatal("expected timeout failure")
	}
}

func TestDescribe(t *testing.T) {
	b, _ := bark.New(bark.Config{APIKey: validKey, Group: "oven"})
	d := b.Describe()
	if d["api_key"] != "AbCd...StUv" || d["base_url"] != bark.DefaultBaseURL || d["group"] != "oven" {
		t.Fatalf("describe = %v", d)
	}
	if strings.Contains(strings.Join([]string{d["api_key"], d["base_url"]}, " "), validKey) {
		t.Fatal("describe leaked the full key")
	}
}
