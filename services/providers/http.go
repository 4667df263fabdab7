package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// maxResponseBytes caps how much of a reply body is read
const maxResponseBytes = 8 << 20

// PostJSON marshals payload, posts it and returns the body of a 2xx response.
// Every failure is a *ProviderError carrying the status when one was received.
func PostJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(provider, CodeMarshal, "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewProviderError(provider, CodeTransport, "failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, TransportError(provider, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, TransportError(provider, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, StatusError(provider, httpResp.StatusCode, respBody)
	}

	return respBody, nil
}
