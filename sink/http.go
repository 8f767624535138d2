package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

const DefaultHTTPTimeout = 5 * time.Second

var ErrUnexpectedStatus = errors.New("unexpected status")

// HTTP posts each reading as a JSON object. Only a 200 response counts as
// delivered.
type HTTP struct {
	url    string
	client *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) Name() string {
	return "http"
}

func (h *HTTP) Send(ctx context.Context, r shared.Reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal reading")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post reading")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrUnexpectedStatus, "status %d", resp.StatusCode)
	}
	return nil
}
