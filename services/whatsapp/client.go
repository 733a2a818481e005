package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/matheuscscp/obrawiser/config"

	"github.com/sirupsen/logrus"
)

type (
	// Client talks to the WhatsApp Cloud API (Graph API) with the bearer
	// token of the business phone number.
	Client struct {
		conf       *config.WhatsApp
		httpClient *http.Client
	}

	// APIError is returned when the Graph API replies with a non-2xx status.
	APIError struct {
		StatusCode int
		Message    string
	}
)

const (
	httpHeaderAuthorization = "Authorization"
	httpHeaderContentType   = "Content-Type"

	maxMediaBytes = 64 << 20
)

var (
	// ErrEmptyMediaURL ...
	ErrEmptyMediaURL = errors.New("graph api returned an empty media url")

	// ErrMediaTooLarge ...
	ErrMediaTooLarge = fmt.Errorf("media is larger than %d bytes", maxMediaBytes)
)

// NewClient ...
func NewClient(conf *config.WhatsApp, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		conf:       conf,
		httpClient: httpClient,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api returned %d: %s", e.StatusCode, e.Message)
}

// SendText sends a plain text message to the given WhatsApp number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	var buf bytes.Buffer
	err := json.NewEncoder(&buf).Encode(&textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             MessageTypeText,
		Text:             textPayload{Body: body},
	})
	if err != nil {
		return fmt.Errorf("error encoding message: %w", err)
	}

	url := c.graphURL(c.conf.PhoneNumberID, "messages")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("error creating request for graph api: %w", err)
	}
	req.Header.Set(httpHeaderContentType, "application/json")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	logrus.WithField("to", to).Debug("message sent")
	return nil
}

// ResolveMedia looks up the short-lived download URL of a media id.
func (c *Client) ResolveMedia(ctx context.Context, mediaID string) (*MediaInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.graphURL(mediaID), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request for graph api: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("error resolving media '%s': %w", mediaID, err)
	}
	defer resp.Body.Close()

	var info MediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("error decoding media '%s': %w", mediaID, err)
	}
	if info.URL == "" {
		return nil, ErrEmptyMediaURL
	}
	return &info, nil
}

// DownloadMedia downloads the binary behind a URL returned by ResolveMedia.
// The URL requires the same bearer token.
func (c *Client) DownloadMedia(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating media download request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading media: %w", err)
	}
	if len(b) > maxMediaBytes {
		return nil, ErrMediaTooLarge
	}
	return b, nil
}

// FetchMedia resolves and downloads a media id.
func (c *Client) FetchMedia(ctx context.Context, mediaID string) ([]byte, *MediaInfo, error) {
	info, err := c.ResolveMedia(ctx, mediaID)
	if err != nil {
		return nil, nil, err
	}
	b, err := c.DownloadMedia(ctx, info.URL)
	if err != nil {
		return nil, nil, err
	}
	return b, info, nil
}

func (c *Client) graphURL(path ...string) string {
	base := strings.TrimSuffix(c.conf.BaseURL, "/")
	return strings.Join(append([]string{base, c.conf.APIVersion}, path...), "/")
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set(httpHeaderAuthorization, fmt.Sprintf("Bearer %s", c.conf.Token))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("error reading payload: %v", err)}
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(b)}
	var errResp apiErrorResponse
	if json.Unmarshal(b, &errResp) == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
	}
	return nil, apiErr
}
