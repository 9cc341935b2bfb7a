package telegram

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
	"github.com/penyablaugrana/porra-pool/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 10 * time.Second

	// Telegram allows roughly 20 messages per minute to one group; spacing
	// sends avoids 429 responses.
	defaultMinSendInterval = 2 * time.Second
)

var errTelegramTransient = crerr.New("telegram transient failure")

type AnnouncerConfig struct {
	BaseURL         string
	Token           string
	ChatID          int64
	Timeout         time.Duration
	MinSendInterval time.Duration
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Announcer pushes settlement reports to the group chat through the Bot API
// sendMessage endpoint.
type Announcer struct {
	client         *fasthttp.Client
	baseURL        string
	token          string
	chatID         int64
	timeout        time.Duration
	minInterval    time.Duration
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger

	mu       sync.Mutex
	lastSend time.Time
}

func NewAnnouncer(cfg AnnouncerConfig, logger *logging.Logger) *Announcer {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	minInterval := cfg.MinSendInterval
	if minInterval < 0 {
		minInterval = 0
	} else if minInterval == 0 {
		minInterval = defaultMinSendInterval
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Announcer{
		client:         &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout},
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		chatID:         cfg.ChatID,
		timeout:        timeout,
		minInterval:    minInterval,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger,
	}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Announce posts one HTML message to the configured chat. Sends are spaced by
// the min interval; transient failures trip the circuit breaker.
func (a *Announcer) Announce(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return crerr.New("announcement text is empty")
	}
	if a.token == "" {
		return crerr.New("telegram bot token is not configured")
	}

	if a.circuitEnabled {
		if err := a.breaker.Allow(); err != nil {
			a.logger.WarnContext(ctx, "telegram circuit breaker rejected send", "state", a.breaker.State())
			return fmt.Errorf("telegram is temporarily unavailable: %w", err)
		}
	}

	if err := a.waitSendSlot(ctx); err != nil {
		return err
	}

	body, err := sonic.Marshal(sendMessageRequest{
		ChatID:                a.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal sendMessage payload")
	}

	sendURL := a.baseURL + "/bot" + a.token + "/sendMessage"
	a.logger.DebugContext(ctx, "telegram sendMessage request", "chat_id", a.chatID, "preview", requestPreview(a.baseURL, body))

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(sendURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := a.client.DoTimeout(req, resp, a.timeout); err != nil {
		callErr := fmt.Errorf("%w: post sendMessage: %v", errTelegramTransient, err)
		a.recordCircuitResult(callErr)
		return callErr
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		var apiResp sendMessageResponse
		description := ""
		if unmarshalErr := sonic.Unmarshal(resp.Body(), &apiResp); unmarshalErr == nil {
			description = apiResp.Description
		}
		if isRetryableStatus(status) {
			callErr := fmt.Errorf("%w: sendMessage status=%d description=%s", errTelegramTransient, status, description)
			a.recordCircuitResult(callErr)
			return callErr
		}
		callErr := fmt.Errorf("sendMessage status=%d description=%s", status, description)
		a.recordCircuitResult(callErr)
		return callErr
	}

	a.recordCircuitResult(nil)
	return nil
}

// waitSendSlot enforces the min interval between two sends.
func (a *Announcer) waitSendSlot(ctx context.Context) error {
	if a.minInterval <= 0 {
		return nil
	}

	a.mu.Lock()
	wait := a.minInterval - time.Since(a.lastSend)
	if wait > 0 {
		a.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		a.mu.Lock()
	}
	a.lastSend = time.Now()
	a.mu.Unlock()
	return nil
}

func (a *Announcer) recordCircuitResult(err error) {
	if !a.circuitEnabled || a.breaker == nil {
		return
	}
	if err == nil {
		a.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errTelegramTransient) {
		a.breaker.RecordFailure()
		return
	}
	a.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

// requestPreview renders a redacted one-line description of the outgoing call
// for debug logs. The bot token never appears in it.
func requestPreview(baseURL string, body []byte) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("POST ")
	_, _ = buf.WriteString(baseURL)
	_, _ = buf.WriteString("/bot***/sendMessage body=")
	preview := string(body)
	if len(preview) > 512 {
		preview = preview[:512] + "...(truncated)"
	}
	_, _ = buf.WriteString(preview)

	return buf.String()
}
