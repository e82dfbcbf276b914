package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// CRMTool looks up customer records from an external CRM over REST. Requests
// are rate limited with a token bucket so a chatty agent cannot exhaust the
// CRM's API quota.
type CRMTool struct {
	apiKey  string
	apiBase string
	client  *http.Client
	limiter *rate.Limiter
}

func NewCRMTool(apiKey, apiBase string, requestsPerMinute int) *CRMTool {
	if apiBase == "" {
		apiBase = "https://api.crm.example.com/v1"
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return &CRMTool{
		apiKey:  apiKey,
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
	}
}

func (t *CRMTool) Name() string {
	return "crm_lookup"
}

func (t *CRMTool) Description() string {
	return "Look up a customer in the CRM by email or customer id. Returns account details, plan, and open tickets."
}

func (t *CRMTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"email": map[string]any{
				"type":        "string",
				"description": "Customer email address",
			},
			"customer_id": map[string]any{
				"type":        "string",
				"description": "CRM customer id, used when email is unknown",
			},
		},
	}
}

func (t *CRMTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	if t.apiKey == "" {
		return ErrorResult("CRM API key not configured")
	}

	email, _ := args["email"].(string)
	customerID, _ := args["customer_id"].(string)
	if email == "" && customerID == "" {
		return ErrorResult("either email or customer_id is required")
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return ErrorResult(fmt.Sprintf("CRM lookup canceled: %v", err))
	}

	endpoint := t.apiBase + "/customers"
	if customerID != "" {
		endpoint += "/" + url.PathEscape(customerID)
	} else {
		endpoint += "?email=" + url.QueryEscape(email)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return ErrorResult(fmt.Sprintf("CRM request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read CRM response: %v", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		return NewToolResult("No matching customer found in CRM.")
	}
	if resp.StatusCode != http.StatusOK {
		return ErrorResult(fmt.Sprintf("CRM returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	// Re-indent so the model gets readable JSON even when the CRM minifies.
	var record any
	if err := json.Unmarshal(body, &record); err != nil {
		return ErrorResult(fmt.Sprintf("CRM returned invalid JSON: %v", err))
	}
	pretty, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to format CRM response: %v", err))
	}
	return NewToolResult(string(pretty))
}

// CRMNoteTool appends a note to a customer record, sharing the lookup
// tool's credentials and rate budget.
type CRMNoteTool struct {
	crm *CRMTool
}

func NewCRMNoteTool(crm *CRMTool) *CRMNoteTool {
	return &CRMNoteTool{crm: crm}
}

func (t *CRMNoteTool) Name() string {
	return "crm_add_note"
}

func (t *CRMNoteTool) Description() string {
	return "Add a note to a customer's CRM record, e.g. a conversation summary or follow-up reminder."
}

func (t *CRMNoteTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"customer_id": map[string]any{
				"type":        "string",
				"description": "CRM customer id",
			},
			"note": map[string]any{
				"type":        "string",
				"description": "The note text to attach",
			},
		},
		"required": []string{"customer_id", "note"},
	}
}

func (t *CRMNoteTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	if t.crm.apiKey == "" {
		return ErrorResult("CRM API key not configured")
	}
	customerID, _ := args["customer_id"].(string)
	note, _ := args["note"].(string)
	if customerID == "" || note == "" {
		return ErrorResult("customer_id and note are required")
	}

	if err := t.crm.limiter.Wait(ctx); err != nil {
		return ErrorResult(fmt.Sprintf("CRM note canceled: %v", err))
	}

	payload, _ := json.Marshal(map[string]string{"note": note})
	endpoint := t.crm.apiBase + "/customers/" + url.PathEscape(customerID) + "/notes"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+t.crm.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.crm.client.Do(req)
	if err != nil {
		return ErrorResult(fmt.Sprintf("CRM request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return ErrorResult(fmt.Sprintf("CRM returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return NewToolResult(fmt.Sprintf("Note added to customer %s", customerID))
}
