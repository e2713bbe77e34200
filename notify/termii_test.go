package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justcars/go-dealer-auth/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"08012345678", "2348012345678"},
		{"+2348012345678", "2348012345678"},
		{"0701 234 5678", "2347012345678"},
	}

	for _, tc := range cases {
		got, err := notify.NormalizePhone(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := notify.NormalizePhone("12")
	assert.Error(t, err)
	_, err = notify.NormalizePhone("not-a-phone")
	assert.Error(t, err)
}

func TestTermiiSendPostsNormalizedPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sms/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := notify.NewTermiiSender("test-key", "JustCars",
		notify.WithTermiiBaseURL(srv.URL))

	err := sender.Send(context.Background(), "08012345678", "your account is live")
	require.NoError(t, err)

	assert.Equal(t, "2348012345678", got["to"])
	assert.Equal(t, "JustCars", got["from"])
	assert.Equal(t, "your account is live", got["sms"])
	assert.Equal(t, "plain", got["type"])
	assert.Equal(t, "generic", got["channel"])
	assert.Equal(t, "test-key", got["api_key"])
}

func TestTermiiSendSurfacesAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	sender := notify.NewTermiiSender("bad-key", "JustCars",
		notify.WithTermiiBaseURL(srv.URL))

	err := sender.Send(context.Background(), "08012345678", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTermiiSendRejectsBadDestination(t *testing.T) {
	sender := notify.NewTermiiSender("test-key", "JustCars")
	err := sender.Send(context.Background(), "not-a-phone", "hello")
	assert.Error(t, err)
}
