package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AzielCF/az-console/ui/rest/middleware"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/screen"
	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	caller string
}

func (s stubSource) Fetch(_ context.Context, query workspace.ListQuery) (workspace.ListPage, error) {
	return workspace.ListPage{
		Results:  []workspace.Record{{ID: "w1", Name: "Owned by " + s.caller, Modified: time.Now()}},
		Total:    1,
		Page:     query.Page,
		PageSize: query.PageSize,
		Sort:     query.Sort,
	}, nil
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil, "test")
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.CallerKey, "alice")
		return c.Next()
	})
	hub.RegisterRoutes(app, screen.Factory{
		Sources:  func(caller string) screen.Source { return stubSource{caller: caller} },
		PageSize: 4,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		cancel()
		_ = app.Shutdown()
	})
	return hub, "ws://" + ln.Addr().String() + "/ws"
}

func readMessage(t *testing.T, conn *fastws.Conn) BroadcastMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg BroadcastMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_FetchThenInvalidate(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := fastws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(BroadcastMessage{Code: CodeFetchWorkspace, Query: &workspace.ListQuery{Page: 2}}))
	msg := readMessage(t, conn)
	require.Equal(t, CodeListWorkspace, msg.Code)

	raw, err := json.Marshal(msg.Result)
	require.NoError(t, err)
	var view workspace.ListView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, workspace.StatePopulated, view.State)
	assert.Equal(t, 2, view.Page)
	assert.Equal(t, 4, view.PageSize)
	require.Len(t, view.Workspaces, 1)
	assert.Equal(t, "Owned by alice", view.Workspaces[0].Name)

	hub.Invalidate([]string{workspace.CacheKeyWorkspaceApps})
	msg = readMessage(t, conn)
	assert.Equal(t, CodeInvalidate, msg.Code)
	assert.Equal(t, []any{workspace.CacheKeyWorkspaceApps}, msg.Result)
}

func TestRegisterRoutes_RejectsPlainHTTP(t *testing.T) {
	hub := NewHub(nil, "test")
	app := fiber.New()
	hub.RegisterRoutes(app, screen.Factory{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
