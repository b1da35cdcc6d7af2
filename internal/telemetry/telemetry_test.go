package telemetry

import (
	"errors"
	"testing"

	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	enqueued   []posthog.Message
	closeCount int
}

func (client *stubClient) Enqueue(msg posthog.Message) error {
	client.enqueued = append(client.enqueued, msg)
	return nil
}

func (client *stubClient) Close() error {
	client.closeCount++
	return nil
}

func resetTelemetryState(t *testing.T) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
}

func initWithClient(t *testing.T, client Client, machineID string) {
	t.Helper()
	t.Setenv(disableEnvVar, "")
	t.Setenv("POSTHOG_API_KEY", "test-key")
	t.Setenv(machineIDEnvVar, machineID)
	clientBuilder = func(apiKey string, endpoint string) (Client, error) {
		return client, nil
	}
	Init()
}

func TestCaptureWithoutInitIsNoop(t *testing.T) {
	resetTelemetryState(t)
	assert.NotPanics(t, func() {
		Capture("noop", nil)
	})
}

func TestCaptureSendsEventWithVersion(t *testing.T) {
	resetTelemetryState(t)
	client := &stubClient{}
	initWithClient(t, client, "machine-test")

	Capture("test-event", map[string]interface{}{"foo": "bar"})

	require.Len(t, client.enqueued, 1)
	capture, ok := client.enqueued[0].(posthog.Capture)
	require.True(t, ok)
	assert.Equal(t, "machine-test", capture.DistinctId)
	assert.Equal(t, "bar", capture.Properties["foo"])
	assert.NotEmpty(t, capture.Properties["version"])
}

func TestCaptureSkipsEmptyEvent(t *testing.T) {
	resetTelemetryState(t)
	client := &stubClient{}
	initWithClient(t, client, "machine")

	Capture("", map[string]interface{}{"foo": "bar"})

	assert.Empty(t, client.enqueued)
}

func TestCaptureCommandAttachesErrorAndProfileOnFailure(t *testing.T) {
	resetTelemetryState(t)
	client := &stubClient{}
	initWithClient(t, client, "machine")

	CaptureCommand(CommandTelemetry{
		Command: "resolve",
		Success: false,
		Error:   errors.New("boom"),
		Extra:   map[string]interface{}{"total": 3},
	})

	require.Len(t, client.enqueued, 1)
	capture := client.enqueued[0].(posthog.Capture)
	assert.Equal(t, "resolve", capture.Event)
	assert.Equal(t, false, capture.Properties["success"])
	assert.Equal(t, "boom", capture.Properties["error"])
	assert.Equal(t, map[string]interface{}{"total": 3}, capture.Properties["extra"])
}

func TestInitHonorsOptOut(t *testing.T) {
	resetTelemetryState(t)
	t.Setenv(disableEnvVar, "true")
	t.Setenv("POSTHOG_API_KEY", "test-key")

	built := false
	clientBuilder = func(string, string) (Client, error) {
		built = true
		return &stubClient{}, nil
	}

	Init()
	Capture("event", nil)

	assert.False(t, built)
}

func TestInitDisablesWhenAPIKeyEmpty(t *testing.T) {
	resetTelemetryState(t)
	t.Setenv(disableEnvVar, "")
	t.Setenv("POSTHOG_API_KEY", "")

	built := false
	clientBuilder = func(string, string) (Client, error) {
		built = true
		return &stubClient{}, nil
	}

	Init()

	assert.False(t, built)
}

func TestInitHandlesFactoryError(t *testing.T) {
	resetTelemetryState(t)
	t.Setenv(disableEnvVar, "")
	t.Setenv("POSTHOG_API_KEY", "key")
	clientBuilder = func(string, string) (Client, error) {
		return nil, errors.New("fail")
	}

	Init()

	assert.NotPanics(t, func() {
		Capture("event", nil)
	})
}

func TestMachineIDEnvOverridesProvider(t *testing.T) {
	resetTelemetryState(t)
	client := &stubClient{}
	machineIDProvider = func() (string, error) { return "provider-id", nil }
	initWithClient(t, client, "env-id")

	Capture("event", nil)

	require.Len(t, client.enqueued, 1)
	assert.Equal(t, "env-id", client.enqueued[0].(posthog.Capture).DistinctId)
}

func TestMachineIDProviderFallback(t *testing.T) {
	resetTelemetryState(t)
	t.Setenv(disableEnvVar, "")
	t.Setenv("POSTHOG_API_KEY", "key")
	machineIDProvider = func() (string, error) { return "", errors.New("fail") }
	client := &stubClient{}
	clientBuilder = func(string, string) (Client, error) { return client, nil }

	Init()
	Capture("event", nil)

	require.Len(t, client.enqueued, 1)
	assert.Equal(t, unknownMachineID, client.enqueued[0].(posthog.Capture).DistinctId)
}

func TestShutdownClosesClientOnce(t *testing.T) {
	resetTelemetryState(t)
	client := &stubClient{}
	initWithClient(t, client, "machine")

	Shutdown()
	Shutdown()

	assert.Equal(t, 1, client.closeCount)
}
