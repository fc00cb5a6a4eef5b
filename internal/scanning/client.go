package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ExtractionRequest carries one receipt photo to the OCR service.
type ExtractionRequest struct {
	ImageBase64 string `json:"image_base64"`
	MediaType   string `json:"media_type"`
}

// ExtractionResult is what the OCR service managed to read off the photo.
// Every field is optional; the service returns null for anything it could
// not find.
type ExtractionResult struct {
	VendorName *string  `json:"vendor_name"`
	Date       *string  `json:"date"`
	TotalTTC   *float64 `json:"total_ttc"`
	TVAAmount  *float64 `json:"tva_amount"`
}

type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error)
}

type ClientConfig struct {
	APIURL      string
	APIKey      string
	ScanTimeout time.Duration
}

// Client calls the external field-extraction HTTP API. The API itself is an
// opaque capability; the client only deals in the request/response contract.
type Client struct {
	apiURL     string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config ClientConfig, logger *slog.Logger) *Client {
	timeout := config.ScanTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiURL:     config.APIURL,
		apiKey:     config.APIKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/extract", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction API returned status %d", resp.StatusCode)
	}

	var result ExtractionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	c.logger.Info("extraction completed",
		"has_vendor", result.VendorName != nil,
		"has_total", result.TotalTTC != nil,
		"has_tva", result.TVAAmount != nil)

	return &result, nil
}
