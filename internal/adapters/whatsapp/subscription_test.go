package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SubscribeApp(t *testing.T) {
	t.Parallel()

	t.Run("posts to subscribed_apps", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v18.0/waba-1/subscribed_apps", r.URL.Path)
			assert.Equal(t, "Bearer EAAtesttoken123", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"success":true}`))
		}))
		defer server.Close()

		require.NoError(t, newTestClient(server.URL).SubscribeApp(context.Background(), "waba-1"))
	})

	t.Run("unacknowledged subscription fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false}`))
		}))
		defer server.Close()

		assert.Error(t, newTestClient(server.URL).SubscribeApp(context.Background(), "waba-1"))
	})

	t.Run("graph error is reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"message":"Permissions error","code":200}}`))
		}))
		defer server.Close()

		err := newTestClient(server.URL).SubscribeApp(context.Background(), "waba-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Permissions error")
	})

	t.Run("token is required", func(t *testing.T) {
		client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
		assert.ErrorIs(t, client.SubscribeApp(context.Background(), "waba-1"), ErrMissingToken)
	})
}

func TestClient_SubscribedApps(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"data":[{"whatsapp_business_api_data":{"id":"app-1","name":"Gateway","link":"https://example.com"}}]}`))
	}))
	defer server.Close()

	apps, err := newTestClient(server.URL).SubscribedApps(context.Background(), "waba-1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "app-1", apps[0].WhatsAppBusinessAPIData.ID)
	assert.Equal(t, "Gateway", apps[0].WhatsAppBusinessAPIData.Name)
}
