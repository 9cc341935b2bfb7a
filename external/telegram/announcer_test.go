package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
	"github.com/penyablaugrana/porra-pool/internal/platform/resilience"
	"github.com/stretchr/testify/require"
)

func newTestAnnouncer(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *Announcer {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewAnnouncer(AnnouncerConfig{
		BaseURL:         server.URL,
		Token:           "123:abc",
		ChatID:          -100200300,
		MinSendInterval: -1,
		CircuitBreaker:  breaker,
	}, logging.NewNop())
}

func TestAnnounce_SendsHTMLMessage(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody sendMessageRequest
	announcer := newTestAnnouncer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, sonic.ConfigDefault.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, resilience.CircuitBreakerConfig{Enabled: true})

	err := announcer.Announce(context.Background(), "<b>Madrid (casa) 3-1</b>\n1. anna (3-1): 3 pts")
	require.NoError(t, err)

	require.Equal(t, "/bot123:abc/sendMessage", gotPath)
	require.Equal(t, int64(-100200300), gotBody.ChatID)
	require.Equal(t, "HTML", gotBody.ParseMode)
	require.True(t, strings.Contains(gotBody.Text, "anna"))
}

func TestAnnounce_EmptyTextRejected(t *testing.T) {
	t.Parallel()

	announcer := newTestAnnouncer(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("server should not be called")
	}, resilience.CircuitBreakerConfig{Enabled: true})

	require.Error(t, announcer.Announce(context.Background(), "   "))
}

func TestAnnounce_NonRetryableStatusDoesNotTrip(t *testing.T) {
	t.Parallel()

	announcer := newTestAnnouncer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		err := announcer.Announce(context.Background(), "report")
		require.Error(t, err)
		require.Contains(t, err.Error(), "status=400")
		require.NotContains(t, err.Error(), "temporarily unavailable")
	}
}

func TestAnnounce_RetryableStatusTripsBreaker(t *testing.T) {
	t.Parallel()

	announcer := newTestAnnouncer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Internal Server Error"}`))
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2})

	require.Error(t, announcer.Announce(context.Background(), "report"))
	require.Error(t, announcer.Announce(context.Background(), "report"))

	err := announcer.Announce(context.Background(), "report")
	require.Error(t, err)
	require.Contains(t, err.Error(), "temporarily unavailable")
}

func TestAnnounce_RequestPreviewRedactsToken(t *testing.T) {
	t.Parallel()

	preview := requestPreview("https://api.telegram.org", []byte(`{"chat_id":-1}`))
	require.Contains(t, preview, "/bot***/sendMessage")
	require.NotContains(t, preview, "123:abc")
}
