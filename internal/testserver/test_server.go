// Package testserver runs the full HTTP stack over an in-memory SQLite
// database for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/calendar"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/domain/results"
	"github.com/ganot/overlap/internal/holiday"
	"github.com/ganot/overlap/internal/lock"
	"github.com/ganot/overlap/internal/mcp"
	"github.com/ganot/overlap/internal/sqlite"
	"github.com/ganot/overlap/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Handler *mcp.Handler
	Token   string
	UserID  string

	keys *sqlite.APIKeyRepository
}

// New starts a server with bearer auth on both REST and /mcp, and registers
// token for userID.
func New(t *testing.T, token, userID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	intervals := sqlite.NewIntervalStore(db)
	groupRepo := sqlite.NewGroupRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	keys := sqlite.NewAPIKeyRepository(db)
	holidays := holiday.NewCalendar()

	activitySvc := activity.NewService(activityRepo, nil)
	availabilitySvc := availability.NewService(intervals, lock.NewLocal(), nil,
		availability.WithHolidays(holidays),
		availability.WithActivityLog(activitySvc),
		availability.WithMembershipGuard(group.NewGuard(groupRepo)),
	)
	groupSvc := group.NewService(groupRepo, availabilitySvc, group.DefaultCountry, nil)

	handler := mcp.NewHandler(mcp.Services{
		Availability: availabilitySvc,
		Groups:       groupSvc,
		Results:      results.NewEngine(intervals, groupSvc, holidays),
		Calendar:     calendar.NewBuilder(intervals, groupSvc, holidays, nil),
		Holidays:     holidays,
		Activity:     activitySvc,
	}, group.DefaultCountry, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Handler:       handler,
		Resolver:      keys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHTTP := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true})

	server := httptest.NewServer(transport.NewServer(handler, transport.Options{
		Auth: transport.AuthMiddleware(keys),
		MCP:  mcpHTTP,
	}))

	ts := &TestServer{
		Server:  server,
		DB:      db,
		Handler: handler,
		Token:   token,
		UserID:  userID,
		keys:    keys,
	}

	require.NoError(t, ts.AddAPIKey(token, userID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another bearer token.
func (ts *TestServer) AddAPIKey(token, userID string) error {
	return ts.keys.Create(context.Background(), token, userID, "test")
}
