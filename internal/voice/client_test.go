package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/config"
)

func TestCreateVoiceRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the provider url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/rooms", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var body struct {
				Name string `json:"name"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "CA Final prep", body.Name)

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"url": "https://voice.example/r/xyz"})
		}))
		defer srv.Close()

		client := NewClient(config.VoiceParams{BaseURL: srv.URL, APIKey: "test-key"})

		url, err := client.CreateVoiceRoom(ctx, "CA Final prep")
		require.NoError(t, err)
		assert.Equal(t, "https://voice.example/r/xyz", url)
	})

	t.Run("provider error surfaces as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(config.VoiceParams{BaseURL: srv.URL, APIKey: "test-key"})

		_, err := client.CreateVoiceRoom(ctx, "r")
		assert.Error(t, err)
	})

	t.Run("empty url in response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"url": ""})
		}))
		defer srv.Close()

		client := NewClient(config.VoiceParams{BaseURL: srv.URL, APIKey: "test-key"})

		_, err := client.CreateVoiceRoom(ctx, "r")
		assert.Error(t, err)
	})

	t.Run("disabled client returns empty url without error", func(t *testing.T) {
		client := NewClient(config.VoiceParams{})
		require.False(t, client.Enabled())

		url, err := client.CreateVoiceRoom(ctx, "r")
		require.NoError(t, err)
		assert.Empty(t, url)
	})
}
