package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/hhcli/internal/network"
)

const DefaultBaseURL = "https://api.hh.ru"

// Doer sends a single HTTP request. *network.Client implements it.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("http %d", e.status)
	}
	return fmt.Sprintf("http %d: %s", e.status, e.body)
}

func (e *statusError) Unwrap() error {
	return network.ErrRequestFailed
}

func endpoint(base string, path string, params url.Values) string {
	target := strings.TrimRight(base, "/") + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return target
}

func newRequest(ctx context.Context, target string) (*fhttp.Request, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Probe sends a bare GET to the vacancies endpoint and returns the status.
func Probe(ctx context.Context, client Doer, baseURL string) (int, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	req, err := newRequest(ctx, endpoint(baseURL, "/vacancies", nil))
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return resp.StatusCode, nil
}

// getJSON fetches target and decodes a 200 response into out.
func getJSON(ctx context.Context, client Doer, target string, out any) error {
	req, err := newRequest(ctx, target)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != fhttp.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

// pause waits for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
