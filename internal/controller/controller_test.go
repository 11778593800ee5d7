package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-query-router-be/internal/dto"
	"ai-query-router-be/internal/pkg/serverutils"
	"ai-query-router-be/internal/service"
	ws "ai-query-router-be/internal/websocket"
)

const testSecret = "test-secret"

type fakeRouteService struct {
	got *dto.RouteRequest
	err error
}

func (f *fakeRouteService) Route(ctx context.Context, req *dto.RouteRequest) (*dto.RouteResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RouteResponse{Success: true, Outcome: "answered", Reply: "Hi!"}, nil
}

type fakeReportService struct {
	window time.Duration
}

func (f *fakeReportService) Summary(ctx context.Context, window time.Duration) (*dto.ReportSummaryResponse, error) {
	f.window = window
	return &dto.ReportSummaryResponse{Window: window.String(), Total: 3}, nil
}

type fakeCounters struct{}

func (fakeCounters) Consume(ctx context.Context) error { return nil }
func (fakeCounters) Snapshot() *dto.LiveCountersResponse {
	return &dto.LiveCountersResponse{Total: 7, Categories: map[string]int64{"GENERAL_CHAT": 7}}
}

type fakeHandlerService struct{}

func (fakeHandlerService) List() []dto.HandlerStatusResponse {
	return []dto.HandlerStatusResponse{{Category: "GENERAL_CHAT", Enabled: true}}
}

func (fakeHandlerService) SetEnabled(category string, enabled bool) (*dto.HandlerStatusResponse, error) {
	switch category {
	case "GENERAL_CHAT":
		return &dto.HandlerStatusResponse{Category: category, Enabled: enabled}, nil
	case "AUTOMATION":
		return nil, fmt.Errorf("%w: %s", service.ErrHandlerUnavailable, category)
	default:
		return nil, fmt.Errorf("%w: %s", service.ErrCategoryNotFound, category)
	}
}

func newApp(register func(api fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(nil))
	register(app.Group("/api"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body, token string) (int, serverutils.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out serverutils.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestRouteController(t *testing.T) {
	svc := &fakeRouteService{}
	app := newApp(NewRouteController(svc).RegisterRoutes)
	sessionId := uuid.NewString()

	status, body := do(t, app, "POST", "/api/route/v1",
		fmt.Sprintf(`{"text":"hello","user_id":"u1","session_id":%q}`, sessionId), "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	assert.Equal(t, "Hi!", body.Data.(map[string]interface{})["reply"])
	require.NotNil(t, svc.got)
	assert.Equal(t, sessionId, svc.got.SessionId)

	status, body = do(t, app, "POST", "/api/route/v1", `{"text":"hello","user_id":"u1","session_id":"nope"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, map[string]interface{}{"sessionid": "must be a valid UUID"}, body.Data)

	status, _ = do(t, app, "POST", "/api/route/v1", `{not json`, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	svc.err = fmt.Errorf("%w: query text is empty", service.ErrInvalidQuery)
	status, body = do(t, app, "POST", "/api/route/v1",
		fmt.Sprintf(`{"text":"   ","user_id":"u1","session_id":%q}`, sessionId), "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body.Message, "query text is empty")
}

func TestReportController(t *testing.T) {
	reports := &fakeReportService{}
	app := newApp(NewReportController(reports, fakeCounters{}).RegisterRoutes)

	status, body := do(t, app, "GET", "/api/report/v1/summary", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, service.DefaultReportWindow, reports.window)
	assert.EqualValues(t, 3, body.Data.(map[string]interface{})["total"])

	status, _ = do(t, app, "GET", "/api/report/v1/summary?window=90m", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 90*time.Minute, reports.window)

	status, _ = do(t, app, "GET", "/api/report/v1/summary?window=-1h", "", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = do(t, app, "GET", "/api/report/v1/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 7, body.Data.(map[string]interface{})["total"])
}

func TestHandlerController(t *testing.T) {
	app := newApp(NewHandlerController(fakeHandlerService{}, testSecret).RegisterRoutes)
	token := adminToken(t)

	status, _ := do(t, app, "GET", "/api/handler/v1", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := do(t, app, "GET", "/api/handler/v1", "", token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body.Data, 1)

	status, body = do(t, app, "PUT", "/api/handler/v1/GENERAL_CHAT/disable", "", token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body.Data.(map[string]interface{})["enabled"])

	status, _ = do(t, app, "PUT", "/api/handler/v1/AUTOMATION/enable", "", token)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = do(t, app, "PUT", "/api/handler/v1/UNKNOWN/enable", "", token)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStreamControllerRequiresUpgrade(t *testing.T) {
	app := newApp(NewStreamController(ws.NewHub(nil), testSecret).RegisterRoutes)
	token := adminToken(t)

	status, _ := do(t, app, "GET", "/api/report/v1/stream", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, "GET", "/api/report/v1/stream", "", token)
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}
