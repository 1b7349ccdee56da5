package flodesk

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sendgrid/rest"
)

type Client struct {
	APIHost   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
	REST      *rest.Client
}

func NewClient(apiHost, apiKey, userAgent string, timeout time.Duration) *Client {
	return &Client{
		APIHost:   apiHost,
		APIKey:    apiKey,
		UserAgent: userAgent,
		Timeout:   timeout,
		REST:      &rest.Client{HTTPClient: &http.Client{}},
	}
}

// LookupSubscriber walks the strategy ladder for a normalized email and
// returns the final response. The error is non-nil only for transport
// failures; upstream status codes are reported in the result.
func (c *Client) LookupSubscriber(ctx context.Context, email string) (*LookupResult, error) {
	result := &LookupResult{}

groups:
	for gi, group := range authGroups {
		lastGroup := gi == len(authGroups)-1

		for _, s := range group {
			attempt, body, err := c.do(ctx, email, s)
			result.Attempts = append(result.Attempts, attempt)
			if err != nil {
				return result, err
			}
			result.StatusCode = attempt.Status
			result.Body = body

			slog.DebugContext(ctx, "flodesk lookup attempt",
				"attempt", len(result.Attempts),
				"auth_mode", s.Auth,
				"encoded", s.Encoded,
				"status", attempt.Status,
			)

			switch {
			case attempt.Status == http.StatusNotFound:
				continue
			case isAuthFailure(attempt.Status) && !lastGroup:
				slog.WarnContext(ctx, "flodesk rejected credential, switching auth mode",
					"auth_mode", s.Auth,
					"status", attempt.Status,
				)
				continue groups
			case isAuthFailure(attempt.Status):
				continue
			default:
				return result, nil
			}
		}

		// every encoding in the group returned 404, or the last group was
		// rejected on every encoding
		return result, nil
	}

	return result, nil
}

func (c *Client) do(ctx context.Context, email string, s Strategy) (Attempt, string, error) {
	reqURL := c.subscriberURL(email, s.Encoded)
	attempt := Attempt{URL: reqURL, Encoded: s.Encoded, AuthMode: s.Auth}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	request := rest.Request{
		Method:  rest.Get,
		BaseURL: reqURL,
		Headers: map[string]string{
			"Authorization": c.authorization(s.Auth),
			"Accept":        "application/json",
			"User-Agent":    c.UserAgent,
		},
	}

	response, err := c.REST.SendWithContext(ctx, request)
	if err != nil {
		return attempt, "", fmt.Errorf("flodesk api error: %w", err)
	}

	attempt.Status = response.StatusCode
	return attempt, response.Body, nil
}

// subscriberURL keeps the literal form unescaped except for "%", which would
// otherwise be read as the start of an escape sequence.
func (c *Client) subscriberURL(email string, encoded bool) string {
	id := strings.ReplaceAll(email, "%", "%25")
	if encoded {
		id = url.QueryEscape(email)
	}
	return c.APIHost + "/v1/subscribers/" + id
}

func (c *Client) authorization(mode AuthMode) string {
	if mode == AuthApiKey {
		return "Api-Key " + c.APIKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.APIKey+":"))
}
