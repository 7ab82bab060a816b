package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogKVLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	LogKV("warn", "stock clamped", map[string]interface{}{"product_id": "p1"})
	LogKV("unknown", "fallback", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "p1", entries[0].ContextMap()["product_id"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
}

func TestJSONLoggerRecordsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	r := gin.New()
	r.Use(JSONLogger())
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boom?x=1", nil)
	r.ServeHTTP(w, req)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/boom", fields["path"])
	assert.Equal(t, "x=1", fields["query"])
	assert.EqualValues(t, http.StatusInternalServerError, fields["status"])
}
