package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsAuthRequest(t *testing.T, user, pass string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if user != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		req.Header.Set("Authorization", "Basic "+auth)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := MetricsBasicAuth()(func(c echo.Context) error {
		return c.String(http.StatusOK, "metrics")
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestMetricsBasicAuth(t *testing.T) {
	t.Run("認証設定がなければ素通し", func(t *testing.T) {
		rec := metricsAuthRequest(t, "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "metrics", rec.Body.String())
	})

	t.Run("正しい認証情報で通る", func(t *testing.T) {
		t.Setenv("METRICS_USER", "testuser")
		t.Setenv("METRICS_PASSWORD", "testpass")

		rec := metricsAuthRequest(t, "testuser", "testpass")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("誤った認証情報は401", func(t *testing.T) {
		t.Setenv("METRICS_USER", "testuser")
		t.Setenv("METRICS_PASSWORD", "testpass")

		rec := metricsAuthRequest(t, "wronguser", "wrongpass")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("認証情報なしは401", func(t *testing.T) {
		t.Setenv("METRICS_USER", "testuser")
		t.Setenv("METRICS_PASSWORD", "testpass")

		rec := metricsAuthRequest(t, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
