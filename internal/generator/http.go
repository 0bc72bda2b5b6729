package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fabrikdata/fabrik/internal/types"
)

// HTTPService talks to an external row generation endpoint. The endpoint
// receives the full Request as JSON and answers {"rows": [...]}; anything
// else is a malformed response.
type HTTPService struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPService(endpoint, apiKey string, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPService{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type httpResponse struct {
	Rows  []types.Row `json:"rows"`
	Error string      `json:"error,omitempty"`
}

func (s *HTTPService) RequestRows(ctx context.Context, req Request) ([]types.Row, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ServiceError{Kind: ServiceMalformedResponse, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Kind: ServiceMalformedResponse, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &ServiceError{Kind: ServiceTimeout, Err: err}
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &ServiceError{Kind: ServiceTimeout, Err: err}
		}
		return nil, &ServiceError{Kind: ServiceMalformedResponse, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, &ServiceError{Kind: ServiceQuotaExceeded, Err: fmt.Errorf("service returned %s", resp.Status)}
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		io.Copy(io.Discard, resp.Body)
		return nil, &ServiceError{Kind: ServiceTimeout, Err: fmt.Errorf("service returned %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, &ServiceError{Kind: ServiceMalformedResponse, Err: fmt.Errorf("service returned %s", resp.Status)}
	}

	var decoded httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &ServiceError{Kind: ServiceMalformedResponse, Err: err}
	}
	if decoded.Error != "" {
		return nil, &ServiceError{Kind: ServiceMalformedResponse, Err: errors.New(decoded.Error)}
	}
	if decoded.Rows == nil {
		return nil, &ServiceError{Kind: ServiceMalformedResponse, Err: errors.New("response missing rows")}
	}
	return decoded.Rows, nil
}
