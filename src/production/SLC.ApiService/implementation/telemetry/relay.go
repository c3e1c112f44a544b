package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
)

// Relay writes a single field value to a telemetry channel
type Relay interface {
	SetField(ctx context.Context, apiKey, field string, value int) error
}

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

var errCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling ThingSpeak after repeated transport failures
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	state        CircuitBreakerState
	failureCount int
	lastFailTime time.Time
	mutex        sync.RWMutex
}

// ThingSpeakClient calls the ThingSpeak update API
type ThingSpeakClient struct {
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *CircuitBreaker
	logger         *logger.Logger
}

// NewThingSpeakClient creates a new client. timeout bounds every call.
func NewThingSpeakClient(baseURL string, timeout time.Duration, log *logger.Logger) *ThingSpeakClient {
	return &ThingSpeakClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		circuitBreaker: &CircuitBreaker{
			maxFailures:  5,
			resetTimeout: 30 * time.Second,
			state:        StateClosed,
		},
		logger: log.WithComponent("thingspeak"),
	}
}

// Circuit breaker methods
func (cb *CircuitBreaker) canExecute() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.state = StateHalfOpen
			return true
		}
		return false
	default:
		return false
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failureCount = 0
	cb.state = StateClosed
}

func (cb *CircuitBreaker) onFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failureCount++
	cb.lastFailTime = time.Now()

	if cb.state == StateHalfOpen || cb.failureCount >= cb.maxFailures {
		cb.state = StateOpen
	}
}

// SetField issues GET <base>/update?api_key=<key>&<field>=<value>. Any
// transport error, non-2xx status or a "0" entry id is a TelemetryFailure.
func (c *ThingSpeakClient) SetField(ctx context.Context, apiKey, field string, value int) error {
	if apiKey == "" {
		return apperror.Validation("no API key configured")
	}
	if !hardware_models.ValidField(field) {
		return apperror.Validation(fmt.Sprintf("invalid field %q", field))
	}
	if value != 0 && value != 1 {
		return apperror.Validation("value must be 0 or 1")
	}

	if !c.circuitBreaker.canExecute() {
		return apperror.TelemetryFailure("telemetry service unavailable", errCircuitOpen)
	}

	entryID, err := c.update(ctx, apiKey, field, value)
	if err != nil {
		c.circuitBreaker.onFailure()
		c.logger.Logger.Warn().Err(err).Str("field", field).Int("value", value).Msg("ThingSpeak update failed")
		return apperror.TelemetryFailure("failed to update ThingSpeak", err)
	}
	c.circuitBreaker.onSuccess()

	c.logger.Logger.Debug().Str("field", field).Int("value", value).Str("entry_id", entryID).Msg("ThingSpeak update accepted")
	return nil
}

func (c *ThingSpeakClient) update(ctx context.Context, apiKey, field string, value int) (string, error) {
	q := url.Values{}
	q.Set("api_key", apiKey)
	q.Set(field, strconv.Itoa(value))

	resp, err := c.makeRequest(ctx, http.MethodGet, "/update?"+q.Encode())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("ThingSpeak returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// ThingSpeak answers 200 with entry id 0 when it drops an update (rate limit, bad key)
	entryID := strings.TrimSpace(string(body))
	if entryID == "0" {
		return "", errors.New("ThingSpeak rejected the update")
	}
	return entryID, nil
}

// makeRequest makes an HTTP request to ThingSpeak
func (c *ThingSpeakClient) makeRequest(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "slc-api-service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error repeats the full URL, which carries the write key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("request to ThingSpeak failed: %w", urlErr.Err)
		}
		return nil, err
	}
	return resp, nil
}

// GetCircuitBreakerStatus returns the current circuit breaker status for monitoring
func (c *ThingSpeakClient) GetCircuitBreakerStatus() map[string]interface{} {
	c.circuitBreaker.mutex.RLock()
	defer c.circuitBreaker.mutex.RUnlock()

	stateStr := "unknown"
	switch c.circuitBreaker.state {
	case StateClosed:
		stateStr = "closed"
	case StateOpen:
		stateStr = "open"
	case StateHalfOpen:
		stateStr = "half-open"
	}

	return map[string]interface{}{
		"state":         stateStr,
		"failure_count": c.circuitBreaker.failureCount,
		"max_failures":  c.circuitBreaker.maxFailures,
	}
}
