package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readinessBody struct {
	Ready  bool                      `json:"ready"`
	Status string                    `json:"status"`
	Checks map[string]ComponentCheck `json:"checks"`
}

func getReadiness(t *testing.T, hc *HealthChecker) (int, readinessBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	hc.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body readinessBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadiness_Healthy(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	code, body := getReadiness(t, NewHealthChecker(fakePinger{}, rdb))

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, body.Ready)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "up", body.Checks["database"].Status)
	assert.Equal(t, "up", body.Checks["redis"].Status)
}

func TestReadiness_DatabaseDownIs503(t *testing.T) {
	code, body := getReadiness(t, NewHealthChecker(fakePinger{err: errors.New("dial tcp: refused")}, nil))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, body.Ready)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "ping failed", body.Checks["database"].Message)
}

func TestReadiness_RedisDownIsDegraded(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	code, body := getReadiness(t, NewHealthChecker(fakePinger{}, rdb))

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, body.Ready)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "down", body.Checks["redis"].Status)
}

func TestDetermineOverallStatus(t *testing.T) {
	assert.Equal(t, "healthy", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "up"},
		"redis":    {Status: "down", Message: "not configured"},
	}))
	assert.Equal(t, "degraded", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "degraded"},
	}))
}
