package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func newResendTestAdapter(t *testing.T, serverURL string) *ResendAdapter {
	t.Helper()

	client := resty.New()
	client.SetBaseURL(serverURL)

	adapter, err := NewResendAdapterWithClient("re_test_key", "noreply@viajora.com", 2, 100, client)
	if err != nil {
		t.Fatalf("NewResendAdapterWithClient() error = %v", err)
	}
	return adapter
}

func TestResendAdapterSendSuccess(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody resendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("path = %s, want /emails", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_abc123"}`))
	}))
	defer server.Close()

	adapter := newResendTestAdapter(t, server.URL)

	result, err := adapter.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if result.MessageID != "re_abc123" {
		t.Fatalf("MessageID = %q, want re_abc123", result.MessageID)
	}
	if result.Provider != "resend" {
		t.Fatalf("Provider = %q, want resend", result.Provider)
	}
	if gotAuth != "Bearer re_test_key" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotBody.From != "noreply@viajora.com" {
		t.Errorf("request.from = %q", gotBody.From)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "ops@viajora.com" {
		t.Errorf("request.to = %v", gotBody.To)
	}
}

func TestResendAdapterSendAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"The to field is invalid"}`))
	}))
	defer server.Close()

	adapter := newResendTestAdapter(t, server.URL)

	_, err := adapter.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Error("422 must be permanent")
	}

	var providerErr *Error
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if providerErr.Message != "The to field is invalid" {
		t.Errorf("Message = %q, want the api error message", providerErr.Message)
	}
}

func TestResendAdapterSendRateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := newResendTestAdapter(t, server.URL)

	_, err := adapter.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Error("429 must be transient")
	}
}

func TestResendAdapterProbe(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{name: "api up", statusCode: http.StatusOK, wantErr: false},
		{name: "key rejected", statusCode: http.StatusUnauthorized, wantErr: true},
		{name: "api down", statusCode: http.StatusInternalServerError, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/domains" {
					t.Errorf("probe path = %s, want /domains", r.URL.Path)
				}
				w.WriteHeader(tc.statusCode)
			}))
			defer server.Close()

			adapter := newResendTestAdapter(t, server.URL)

			err := adapter.Probe(context.Background())
			if (err != nil) != tc.wantErr {
				t.Errorf("Probe() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewResendAdapterValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewResendAdapter("", "noreply@viajora.com", 2, 100); err == nil {
		t.Error("empty api key should fail")
	}
	if _, err := NewResendAdapter("re_key", "", 2, 100); err == nil {
		t.Error("empty sender should fail")
	}
}
