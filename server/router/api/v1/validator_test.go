package v1

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, query string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestValidateTitle(t *testing.T) {
	require.NoError(t, validateTitle("Buy groceries"))
	require.Error(t, validateTitle(""))
	require.Error(t, validateTitle("   "))
	require.Error(t, validateTitle(strings.Repeat("x", maxTitleLength+1)))
	require.NoError(t, validateTitle(strings.Repeat("x", maxTitleLength)))
}

func TestValidateChatMessage(t *testing.T) {
	require.NoError(t, validateChatMessage("how am I doing?"))
	require.Error(t, validateChatMessage(" "))
	require.Error(t, validateChatMessage(strings.Repeat("x", maxMessageLength+1)))
}

func TestParsePagination(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		limit, offset, err := parsePagination(testContext(t, ""))
		require.NoError(t, err)
		require.Equal(t, defaultListLimit, *limit)
		require.Nil(t, offset)
	})

	t.Run("explicit values", func(t *testing.T) {
		limit, offset, err := parsePagination(testContext(t, "limit=25&offset=50"))
		require.NoError(t, err)
		require.Equal(t, 25, *limit)
		require.Equal(t, 50, *offset)
	})

	t.Run("limit capped", func(t *testing.T) {
		limit, _, err := parsePagination(testContext(t, "limit=99999"))
		require.NoError(t, err)
		require.Equal(t, maxListLimit, *limit)
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, _, err := parsePagination(testContext(t, "limit=0"))
		require.Error(t, err)
	})

	t.Run("rejects negative offset", func(t *testing.T) {
		_, _, err := parsePagination(testContext(t, "offset=-1"))
		require.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, _, err := parsePagination(testContext(t, "limit=abc"))
		require.Error(t, err)
	})
}

func TestParseDateParam(t *testing.T) {
	fallback := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	parsed, err := parseDateParam(testContext(t, "start_date=2026-03-15"), "start_date", fallback)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), parsed)

	parsed, err = parseDateParam(testContext(t, ""), "start_date", fallback)
	require.NoError(t, err)
	require.Equal(t, fallback, parsed)

	_, err = parseDateParam(testContext(t, "start_date=15-03-2026"), "start_date", fallback)
	require.Error(t, err)
}

func TestParseTimeParam(t *testing.T) {
	fallback := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	parsed, err := parseTimeParam(testContext(t, "from=2026-03-15T09:30:00Z"), "from", fallback)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC), parsed)

	parsed, err = parseTimeParam(testContext(t, ""), "from", fallback)
	require.NoError(t, err)
	require.Equal(t, fallback, parsed)

	_, err = parseTimeParam(testContext(t, "from=2026-03-15"), "from", fallback)
	require.Error(t, err)
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2026, 3, 15, 13, 45, 12, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), startOfDay(at))
	require.Equal(t, time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC), endOfDay(at))
}
