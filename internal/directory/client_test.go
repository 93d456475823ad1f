package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handyhub/quotehub/internal/matching"
	"github.com/handyhub/quotehub/internal/types"
)

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	client, err := NewClient(&Options{BaseURL: "http://directory.local"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNearby(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/providers/nearby", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "plumbing", query.Get("category"))
		assert.Equal(t, "6.9271", query.Get("lat"))
		assert.Equal(t, "79.8612", query.Get("lng"))
		assert.Equal(t, "10", query.Get("radius"))
		assert.Equal(t, "5", query.Get("limit"))
		assert.Equal(t, "4.5", query.Get("min_rating"))

		_ = json.NewEncoder(w).Encode([]matching.CandidateProvider{
			{ID: "p1", Email: "p1@example.com", Category: "plumbing", Rating: 4.8},
			{ID: "p2", Email: "p2@example.com", Category: "plumbing", Rating: 4.6},
		})
	}))
	defer server.Close()

	client, err := NewClient(&Options{BaseURL: server.URL})
	require.NoError(t, err)

	candidates, err := client.Nearby(context.Background(), matching.NearbyQuery{
		Category:  "plumbing",
		Lat:       6.9271,
		Lng:       79.8612,
		RadiusKm:  10,
		Limit:     5,
		MinRating: 4.5,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "p1", candidates[0].ID)
}

func TestNearbyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(&Options{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Nearby(context.Background(), matching.NearbyQuery{})
	require.Error(t, err)
	assert.Equal(t, types.KindServiceUnavailable, types.KindOf(err))
}

func TestNearbyMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, err := NewClient(&Options{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Nearby(context.Background(), matching.NearbyQuery{})
	require.Error(t, err)
	assert.Equal(t, types.KindServiceUnavailable, types.KindOf(err))
}

func TestNearbyTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client, err := NewClient(&Options{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Nearby(context.Background(), matching.NearbyQuery{})
	require.Error(t, err)
	assert.Equal(t, types.KindServiceUnavailable, types.KindOf(err))
}
