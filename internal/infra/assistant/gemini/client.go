// Package gemini adapts the Gemini generateContent REST endpoint to policies.LanguageModel.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reva/internal/app/policies"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
)

var ErrNoCandidates = errors.New("gemini: response has no candidates")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
	Tools             []tool    `json:"tools,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Generate(ctx context.Context, req policies.GenerateRequest) (policies.GenerateResponse, error) {
	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return policies.GenerateResponse{}, err
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return policies.GenerateResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return policies.GenerateResponse{}, fmt.Errorf("gemini: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return policies.GenerateResponse{}, fmt.Errorf("gemini: generateContent returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return policies.GenerateResponse{}, fmt.Errorf("gemini: decode response: %w", err)
	}
	return parseResponse(out)
}

func buildRequest(req policies.GenerateRequest) generateRequest {
	out := generateRequest{Contents: make([]content, 0, len(req.Turns))}
	if req.System != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	for _, t := range req.Turns {
		var p part
		switch {
		case t.Call != nil:
			p.FunctionCall = &functionCall{Name: t.Call.Name, Args: t.Call.Args}
		case t.Result != nil:
			p.FunctionResponse = &functionResponse{Name: t.Result.Name, Response: t.Result.Response}
		default:
			p.Text = t.Text
		}
		out.Contents = append(out.Contents, content{Role: string(t.Role), Parts: []part{p}})
	}
	if len(req.Tools) > 0 {
		decls := make([]functionDeclaration, 0, len(req.Tools))
		for _, spec := range req.Tools {
			decls = append(decls, functionDeclaration{Name: spec.Name, Description: spec.Description, Parameters: spec.Parameters})
		}
		out.Tools = []tool{{FunctionDeclarations: decls}}
	}
	return out
}

// parseResponse prefers a function call over text when the model returns both.
func parseResponse(resp generateResponse) (policies.GenerateResponse, error) {
	if len(resp.Candidates) == 0 {
		return policies.GenerateResponse{}, ErrNoCandidates
	}
	var (
		out  policies.GenerateResponse
		text strings.Builder
	)
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.FunctionCall != nil && out.Call == nil {
			out.Call = &policies.ToolCall{Name: p.FunctionCall.Name, Args: p.FunctionCall.Args}
		}
		text.WriteString(p.Text)
	}
	out.Text = text.String()
	return out, nil
}

var _ policies.LanguageModel = (*Client)(nil)
