package battlemetrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-donations/grant"
)

func TestPutReservedSlot(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/reserved-slots", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "secret", OrganizationID: "org"}, srv.Client(), nil)
	expires := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	err := c.ReservedSlots().Put(context.Background(), grant.Grant{ServerID: "42", SteamID: "7656", Expires: &expires})
	require.NoError(t, err)

	data := body["data"].(map[string]any)
	assert.Equal(t, "reservedSlot", data["type"])
	attrs := data["attributes"].(map[string]any)
	assert.Equal(t, "2024-05-01T00:00:00Z", attrs["expires"])
	servers := data["relationships"].(map[string]any)["servers"].(map[string]any)["data"].([]any)
	assert.Equal(t, "42", servers[0].(map[string]any)["id"])
}

func TestPutReservedSlotErrors(t *testing.T) {
	status := http.StatusConflict
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{"errors":[{"title":"Unknown error","detail":"boom"}]}`))
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL}, srv.Client(), nil)

	err := c.ReservedSlots().Put(context.Background(), grant.Grant{ServerID: "42", SteamID: "7656"})
	assert.ErrorIs(t, err, grant.ErrDuplicateResource)

	status = http.StatusBadGateway
	err = c.ReservedSlots().Put(context.Background(), grant.Grant{ServerID: "42", SteamID: "7656"})
	assert.ErrorIs(t, err, grant.ErrExternalService)
}

func TestGetReservedSlotPicksLongest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7656", r.URL.Query().Get("filter[search]"))
		w.Write([]byte(`{"data":[
			{"type":"reservedSlot","id":"1","attributes":{"expires":"2024-01-01T00:00:00Z","identifiers":[{"type":"steamID","identifier":"7656"}]}},
			{"type":"reservedSlot","id":"2","attributes":{"expires":"2024-06-01T00:00:00Z","identifiers":[{"type":"steamID","identifier":"7656"}]}},
			{"type":"reservedSlot","id":"3","attributes":{"expires":null,"identifiers":[{"type":"steamID","identifier":"76561"}]}}
		]}`))
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL}, srv.Client(), nil)

	entry, err := c.ReservedSlots().Get(context.Background(), "42", "7656")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), entry.Expires.UTC())
}
