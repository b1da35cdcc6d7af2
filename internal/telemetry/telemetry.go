// Package telemetry reports anonymous usage events.
package telemetry

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/palgania/launcher/internal/environment"
	"github.com/palgania/launcher/internal/models"
	"github.com/posthog/posthog-go"
)

type Client interface {
	io.Closer
	Enqueue(posthog.Message) error
}

const (
	disableEnvVar      = "PALGANIA_LAUNCHER_NO_TELEMETRY"
	machineIDEnvVar    = "MACHINE_ID"
	unknownMachineID   = "unknown"
	defaultPosthogHost = "https://eu.i.posthog.com"
)

var (
	mu        sync.Mutex
	client    Client
	machineID string
	enabled   bool

	clientBuilder = defaultClientFactory

	machineIDProvider = machineid.ID
)

func defaultClientFactory(apiKey string, endpoint string) (Client, error) {
	return posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
}

// CommandTelemetry summarizes one command invocation. The profile is only
// attached on failure, to give the error context.
type CommandTelemetry struct {
	Command string                 `json:"command"`
	Success bool                   `json:"success"`
	Profile *models.ProfileJson    `json:"profile,omitempty"`
	Error   error                  `json:"error,omitempty"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// Init builds the reporting client. Telemetry stays off when the opt-out env
// var is set or no API key is configured.
func Init() {
	mu.Lock()
	defer mu.Unlock()

	if client != nil {
		return
	}

	if optedOut, present := os.LookupEnv(disableEnvVar); present && strings.TrimSpace(optedOut) != "" {
		enabled = false
		return
	}

	apiKey := environment.PosthogAPIKey()
	if strings.TrimSpace(apiKey) == "" {
		enabled = false
		return
	}

	machineID = resolveMachineID()

	newClient, err := clientBuilder(apiKey, defaultPosthogHost)
	if err != nil || newClient == nil {
		enabled = false
		return
	}

	client = newClient
	enabled = true
}

func resolveMachineID() string {
	if envMachineID, present := os.LookupEnv(machineIDEnvVar); present && envMachineID != "" {
		return envMachineID
	}

	id, err := machineIDProvider()
	if err != nil || id == "" {
		return unknownMachineID
	}
	return id
}

// Capture sends one event. A no-op before Init or when telemetry is off.
func Capture(event string, properties map[string]interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || client == nil || strings.TrimSpace(event) == "" {
		return
	}

	if properties == nil {
		properties = map[string]interface{}{}
	}
	properties["version"] = environment.AppVersion()

	_ = client.Enqueue(posthog.Capture{
		Event:      event,
		DistinctId: machineID,
		Properties: properties,
	})
}

func CaptureCommand(command CommandTelemetry) {
	properties := map[string]interface{}{
		"type":    "command",
		"success": command.Success,
	}

	if !command.Success {
		properties["profile"] = command.Profile
	}

	if command.Error != nil {
		properties["error"] = command.Error.Error()
	}

	if command.Extra != nil {
		properties["extra"] = command.Extra
	}

	Capture(command.Command, properties)
}

// Shutdown flushes and closes the client. Safe to call repeatedly.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()

	if client == nil {
		return
	}
	_ = client.Close()
	client = nil
	enabled = false
}

// Reset clears global state (tests only).
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	client = nil
	machineID = ""
	enabled = false
	clientBuilder = defaultClientFactory
	machineIDProvider = machineid.ID
}
