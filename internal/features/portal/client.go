package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"estia-crm/internal/config"
)

// BulkEntry is one property inside an outbound bulk request. ADD entries
// carry a listing payload; REMOVE entries carry the existing ref id.
type BulkEntry struct {
	ItemRef string          `json:"item_ref"`
	RefID   string          `json:"ref_id,omitempty"`
	Listing *ListingPayload `json:"listing,omitempty"`
}

type BulkRequest struct {
	StoreID   string      `json:"store_id"`
	Operation RequestType `json:"operation"`
	Entries   []BulkEntry `json:"entries"`
}

type ItemResult struct {
	ItemRef  string `json:"item_ref"`
	RefID    string `json:"ref_id,omitempty"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// BulkResponse covers both portal response modes. Synchronous responses carry
// every item's result; asynchronous ones only an acknowledgement id for later
// polling.
type BulkResponse struct {
	Async   bool         `json:"async"`
	AckID   string       `json:"ack_id,omitempty"`
	Results []ItemResult `json:"results,omitempty"`
}

type StatusResponse struct {
	Complete bool         `json:"complete"`
	Results  []ItemResult `json:"results,omitempty"`
}

// PortalClient talks to the xe.gr Bulk Import Tool.
type PortalClient interface {
	SubmitBulk(ctx context.Context, cfg *IntegrationConfig, req *BulkRequest) (*BulkResponse, error)
	CheckStatus(ctx context.Context, cfg *IntegrationConfig, ackID string) (*StatusResponse, error)
}

type XEClient struct {
	BaseURL    string
	HttpClient *http.Client
}

func NewPortalClient(cfg *config.Config) PortalClient {
	return &XEClient{
		BaseURL: cfg.XEBaseURL,
		HttpClient: &http.Client{
			Timeout: time.Duration(cfg.XETimeoutSec) * time.Second,
		},
	}
}

func (c *XEClient) SubmitBulk(ctx context.Context, cfg *IntegrationConfig, req *BulkRequest) (*BulkResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "submit", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/packages", bytes.NewBuffer(body))
	if err != nil {
		return nil, &TransportError{Op: "submit", Err: err}
	}
	c.setHeaders(httpReq, cfg)

	resp, err := c.HttpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: "submit", Err: httpStatusError(resp)}
	}

	var out BulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TransportError{Op: "submit", Err: err}
	}
	return &out, nil
}

func (c *XEClient) CheckStatus(ctx context.Context, cfg *IntegrationConfig, ackID string) (*StatusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/packages/"+ackID, nil)
	if err != nil {
		return nil, &TransportError{Op: "status", Err: err}
	}
	c.setHeaders(httpReq, cfg)

	resp, err := c.HttpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "status", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: "status", Err: httpStatusError(resp)}
	}

	var out StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TransportError{Op: "status", Err: err}
	}
	return &out, nil
}

func (c *XEClient) setHeaders(req *http.Request, cfg *IntegrationConfig) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Estia-CRM-Sync")
	if cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.AuthToken)
	} else {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}
	req.Header.Set("X-XE-Store", cfg.StoreID)
}

func httpStatusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
}
