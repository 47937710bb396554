package functional_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/ganot/overlap/internal/testserver"
	"github.com/stretchr/testify/require"
)

type restEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func restCall(t *testing.T, ts *testserver.TestServer, token, method, path string, body any) (int, restEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env restEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestREST_GroupLifecycle(t *testing.T) {
	ts := testserver.New(t, "token", "alice")
	require.NoError(t, ts.AddAPIKey("bob-token", "bob"))

	status, env := restCall(t, ts, "token", http.MethodPost, "/api/v1/groups", map[string]any{"name": "Weekend trip", "weekends_only": true})
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)
	var g struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &g))
	base := "/api/v1/groups/" + g.ID

	status, env = restCall(t, ts, "bob-token", http.MethodGet, base+"/availability", nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = restCall(t, ts, "bob-token", http.MethodPost, base+"/members", nil)
	require.Equal(t, http.StatusForbidden, status, "private groups need an invitation")
	require.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = restCall(t, ts, "token", http.MethodPost, base+"/invitation/enable", nil)
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var inv struct {
		Token   string `json:"token"`
		Enabled bool   `json:"enabled"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	require.True(t, inv.Enabled)
	require.Len(t, inv.Token, 32)

	status, _ = restCall(t, ts, "bob-token", http.MethodPost, base+"/members?token="+inv.Token, nil)
	require.Equal(t, http.StatusOK, status)

	// 2025-03-10 (Mon) .. 2025-03-16 (Sun), a week without holidays
	status, _ = restCall(t, ts, "token", http.MethodPost, base+"/availability", map[string]string{"start_date": "2025-03-10", "end_date": "2025-03-16"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = restCall(t, ts, "bob-token", http.MethodPost, base+"/availability", map[string]string{"start_date": "2025-03-15", "end_date": "2025-03-15"})
	require.Equal(t, http.StatusCreated, status)

	status, env = restCall(t, ts, "token", http.MethodGet, base+"/results", nil)
	require.Equal(t, http.StatusOK, status)
	var results struct {
		Results []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &results))
	// Weekends-only keeps Fri 14, Sat 15 and Sun 16.
	require.Len(t, results.Results, 3)
	require.Equal(t, "2025-03-15", results.Results[0].Date)
	require.Equal(t, 2, results.Results[0].Count)

	status, env = restCall(t, ts, "bob-token", http.MethodDelete, base+"/members/alice", nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = restCall(t, ts, "token", http.MethodDelete, base+"/members/bob", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = restCall(t, ts, "token", http.MethodGet, base+"/member-days", nil)
	require.Equal(t, http.StatusOK, status)
	var days struct {
		Days map[string]int `json:"days"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &days))
	require.Equal(t, map[string]int{"alice": 7}, days.Days)

	status, env = restCall(t, ts, "token", http.MethodPatch, base, map[string]any{"name": "Long weekend", "weekends_only": false})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var updated struct {
		Name         string `json:"name"`
		WeekendsOnly bool   `json:"weekends_only"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	require.Equal(t, "Long weekend", updated.Name)
	require.False(t, updated.WeekendsOnly)

	status, _ = restCall(t, ts, "token", http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, status)
	status, env = restCall(t, ts, "token", http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestREST_AvailabilityEditing(t *testing.T) {
	ts := testserver.New(t, "token", "alice")

	_, env := restCall(t, ts, "token", http.MethodPost, "/api/v1/groups", map[string]any{"name": "Edits"})
	var g struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &g))
	base := "/api/v1/groups/" + g.ID

	for _, r := range [][2]string{{"2025-05-01", "2025-05-02"}, {"2025-05-10", "2025-05-11"}, {"2025-05-20", "2025-05-20"}} {
		status, _ := restCall(t, ts, "token", http.MethodPost, base+"/availability", map[string]string{"start_date": r[0], "end_date": r[1]})
		require.Equal(t, http.StatusCreated, status)
	}

	_, env = restCall(t, ts, "token", http.MethodGet, base+"/availability", nil)
	var list availabilityList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Intervals, 3)

	status, env := restCall(t, ts, "token", http.MethodDelete, base+"/availability/"+list.Intervals[0].ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = restCall(t, ts, "token", http.MethodDelete, base+"/availability/"+list.Intervals[0].ID, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = restCall(t, ts, "token", http.MethodPost, base+"/availability/batch-delete", map[string]any{"ids": []string{list.Intervals[1].ID, "unknown"}})
	require.Equal(t, http.StatusOK, status)
	var deleted struct {
		Deleted int `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	require.Equal(t, 1, deleted.Deleted)

	status, env = restCall(t, ts, "token", http.MethodPost, base+"/availability", map[string]string{"start_date": "2025-05-09", "end_date": "2025-05-01"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "INVALID_RANGE", env.Error.Code)

	status, env = restCall(t, ts, "token", http.MethodDelete, base+"/availability", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	require.Equal(t, 1, deleted.Deleted)
}

func TestREST_ICSExport(t *testing.T) {
	ts := testserver.New(t, "token", "alice")

	_, env := restCall(t, ts, "token", http.MethodPost, "/api/v1/groups", map[string]any{"name": "Calendar"})
	var g struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &g))
	restCall(t, ts, "token", http.MethodPost, "/api/v1/groups/"+g.ID+"/availability", map[string]string{"start_date": "2025-08-01", "end_date": "2025-08-03"})

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/api/v1/groups/"+g.ID+"/availability.ics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "BEGIN:VEVENT")
	require.Contains(t, string(body), "20250801")
	require.Contains(t, string(body), "20250804")
}

func TestREST_RequiresBearerToken(t *testing.T) {
	ts := testserver.New(t, "token", "alice")

	status, env := restCall(t, ts, "wrong", http.MethodGet, "/api/v1/holidays", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)
}
