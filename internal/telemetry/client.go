// Package telemetry sends opt-in, anonymous usage counts to PostHog.
// Events carry counts and durations only, never question or answer text.
package telemetry

import (
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

// Client is the interface for telemetry clients.
type Client interface {
	// Track sends an event asynchronously. No-op when telemetry is disabled.
	Track(event string, properties map[string]any)

	// Close flushes pending events and closes the client.
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// enqueuer is the subset of the PostHog client we use, mockable in tests.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// PostHogClient wraps the PostHog SDK for async telemetry.
type PostHogClient struct {
	client      enqueuer
	anonymousID string
	version     string
	mu          sync.RWMutex
	closed      bool
}

// ClientConfig holds configuration for the telemetry client.
type ClientConfig struct {
	// Enabled turns telemetry on. It is off unless configured.
	Enabled bool

	// APIKey is the PostHog project API key.
	APIKey string

	// Endpoint is an optional self-hosted PostHog endpoint.
	Endpoint string

	// AnonymousID identifies this installation; see LoadOrCreateID.
	AnonymousID string

	// Version is the build version string.
	Version string
}

// New returns a PostHog client, or a NoopClient when telemetry is disabled
// or no API key is configured.
func New(cfg ClientConfig) (Client, error) {
	if !cfg.Enabled || cfg.APIKey == "" || cfg.AnonymousID == "" {
		return NewNoopClient(), nil
	}

	phConfig := posthog.Config{
		BatchSize: 20,
		Interval:  5 * time.Second,
		// Telemetry must never pollute service logs with transport warnings.
		Logger: quietPostHogLogger{},
	}
	if cfg.Endpoint != "" {
		phConfig.Endpoint = cfg.Endpoint
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, phConfig)
	if err != nil {
		return nil, err
	}
	return newPostHogClientWithEnqueuer(client, cfg.AnonymousID, cfg.Version), nil
}

func newPostHogClientWithEnqueuer(enq enqueuer, anonymousID, version string) *PostHogClient {
	return &PostHogClient{
		client:      enq,
		anonymousID: anonymousID,
		version:     version,
	}
}

// Track enqueues an event without blocking.
func (c *PostHogClient) Track(event string, properties map[string]any) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("version", c.version)
	// Anonymous events only; no person profiles are created.
	props.Set("$process_person_profile", false)

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.anonymousID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes the queue. Further Track calls are ignored.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// NoopClient is a telemetry client that does nothing.
type NoopClient struct{}

// Track is a no-op.
func (NoopClient) Track(string, map[string]any) {}

// Close is a no-op.
func (NoopClient) Close() error { return nil }

// NewNoopClient returns a client that does nothing.
func NewNoopClient() NoopClient {
	return NoopClient{}
}

type quietPostHogLogger struct{}

func (quietPostHogLogger) Debugf(string, ...interface{}) {}
func (quietPostHogLogger) Logf(string, ...interface{})   {}
func (quietPostHogLogger) Warnf(string, ...interface{})  {}
func (quietPostHogLogger) Errorf(string, ...interface{}) {}
