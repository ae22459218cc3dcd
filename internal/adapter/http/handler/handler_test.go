package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tx-resource-manager/config"
	"tx-resource-manager/internal/core/ports"
	"tx-resource-manager/internal/core/ports/mocks"
	"tx-resource-manager/internal/manager"
	"tx-resource-manager/internal/pool"
	"tx-resource-manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAPIKey = "admin-api-key"

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(context.Context) error { return s.err }
func (s stubChecker) Name() string               { return s.name }

func newTestPool(t *testing.T, ctrl *gomock.Controller) *pool.Pool {
	t.Helper()
	factory := mocks.NewMockConnectionFactory(ctrl)
	factory.EXPECT().CreatePhysical(gomock.Any()).Return("conn", nil).AnyTimes()
	factory.EXPECT().DestroyPhysical(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	factory.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(true).AnyTimes()

	p, err := pool.New(context.Background(), config.PoolConfig{
		MinSize:             1,
		MaxSize:             4,
		BorrowTimeout:       time.Second,
		IdleTimeout:         time.Minute,
		MaintenanceInterval: time.Minute,
		BorrowRetryLimit:    3,
	}, factory, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	return p
}

func newTestRouter(t *testing.T, ctrl *gomock.Controller) (*gin.Engine, *service.JWTTokenService) {
	t.Helper()
	tokenSvc := service.NewJWTTokenService("test-secret", time.Hour, "txmd")
	m := manager.New(config.CoordinatorConfig{
		PropagationMode: config.PropagationSync,
		MaxTimeout:      time.Second,
		WorkerLimit:     4,
	}, zerolog.Nop())

	router := SetupRouter(RouterDeps{
		APIKey:   testAPIKey,
		TokenSvc: tokenSvc,
		Pool:     newTestPool(t, ctrl),
		Manager:  m,
		HealthCheckers: []ports.HealthChecker{
			stubChecker{name: "postgresql"},
			stubChecker{name: "redis"},
		},
		Logger: zerolog.Nop(),
	})
	return router, tokenSvc
}

func bearer(t *testing.T, tokenSvc *service.JWTTokenService) string {
	t.Helper()
	token, _, err := tokenSvc.Generate("admin")
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthCheck_Healthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, _ := newTestRouter(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestHealthCheck_Degraded(t *testing.T) {
	router := SetupRouter(RouterDeps{
		TokenSvc: service.NewJWTTokenService("s", time.Hour, "txmd"),
		HealthCheckers: []ports.HealthChecker{
			stubChecker{name: "postgresql"},
			stubChecker{name: "redis", err: errors.New("connection refused")},
		},
		Logger: zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestToken_Issue(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, _ := newTestRouter(t, ctrl)

	body, _ := json.Marshal(map[string]string{"api_key": testAPIKey})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
}

func TestToken_WrongKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, _ := newTestRouter(t, ctrl)

	body, _ := json.Marshal(map[string]string{"api_key": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_001")
}

func TestPoolStats_RequiresAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, _ := newTestRouter(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pool/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPoolStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, tokenSvc := newTestRouter(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pool/stats", nil)
	req.Header.Set("Authorization", bearer(t, tokenSvc))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"max_size":4`)
	assert.Contains(t, w.Body.String(), `"available":1`)
}

func TestListTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, tokenSvc := newTestRouter(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", bearer(t, tokenSvc))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"sync"`)
}

func TestGetTransaction_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, tokenSvc := newTestRouter(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", bearer(t, tokenSvc))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "TXN_005")
}
