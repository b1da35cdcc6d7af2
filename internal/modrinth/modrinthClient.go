package modrinth

import (
	"fmt"
	"net/http"

	"github.com/palgania/launcher/internal/environment"
	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/perf"
	"go.opentelemetry.io/otel/attribute"
)

const baseURL = "https://api.modrinth.com"

// Client decorates a Doer with the fixed identifying headers every catalog
// request must carry.
type Client struct {
	client httpclient.Doer
}

func NewClient(doer httpclient.Doer) *Client {
	return &Client{client: doer}
}

func (modrinthClient *Client) Do(request *http.Request) (*http.Response, error) {
	ctx, span := perf.StartSpan(request.Context(), "api.modrinth.http.request", perf.WithAttributes(attribute.String("url", request.URL.String())))
	defer span.End()
	headers := map[string]string{
		"user-agent":    fmt.Sprintf("github_com/palgania/launcher/%s", environment.AppVersion()),
		"Accept":        "application/json",
		"Authorization": environment.ModrinthAPIKey(),
	}

	for key, value := range headers {
		request.Header.Add(key, value)
	}

	return modrinthClient.client.Do(request.WithContext(ctx))
}

func GetBaseUrl() string {
	return baseURL
}
