package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"breed_site_backend/platform/config"
	"breed_site_backend/platform/logger"
	"breed_site_backend/platform/phone"
)

// CloudChannel sends template messages through the Meta WhatsApp Cloud API.
// Business-initiated messages outside the 24-hour customer service window
// must use an approved template, so every operator alert goes out as the
// configured template with the alert text as its single body parameter.
type CloudChannel struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	template      string
	templateLang  string
	http          *http.Client
	log           *logger.Logger
}

type cloudTemplateRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Template         cloudTemplate `json:"template"`
}

type cloudTemplate struct {
	Name       string           `json:"name"`
	Language   cloudLanguage    `json:"language"`
	Components []cloudComponent `json:"components,omitempty"`
}

type cloudLanguage struct {
	Code string `json:"code"`
}

type cloudComponent struct {
	Type       string           `json:"type"`
	Parameters []cloudParameter `json:"parameters"`
}

type cloudParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type cloudSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type cloudErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func NewCloudChannel(cfg config.WhatsAppConfig, log *logger.Logger) *CloudChannel {
	return &CloudChannel{
		baseURL:       strings.TrimRight(cfg.GetCloudBaseURL(), "/"),
		accessToken:   cfg.GetCloudAccessToken(),
		phoneNumberID: cfg.GetCloudPhoneNumberID(),
		template:      cfg.GetCloudTemplateName(),
		templateLang:  cfg.GetCloudTemplateLanguage(),
		http:          &http.Client{Timeout: cfg.GetProviderTimeout()},
		log:           log,
	}
}

func (c *CloudChannel) Name() string { return "cloud" }

func (c *CloudChannel) Send(ctx context.Context, to, body string) (Result, error) {
	payload := cloudTemplateRequest{
		MessagingProduct: "whatsapp",
		To:               phone.NormalizeZA(to),
		Type:             "template",
		Template: cloudTemplate{
			Name:     c.template,
			Language: cloudLanguage{Code: c.templateLang},
			Components: []cloudComponent{{
				Type:       "body",
				Parameters: []cloudParameter{{Type: "text", Text: body}},
			}},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal cloud payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("cloud api request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read cloud api response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{}, fmt.Errorf("cloud api returned %d: %s", resp.StatusCode, cloudErrorMessage(raw))
	}

	var parsed cloudSendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode cloud api response: %w", err)
	}
	if len(parsed.Messages) == 0 {
		return Result{}, fmt.Errorf("cloud api accepted the message but returned no message id")
	}

	c.log.Info("whatsapp sent via cloud api", "messageId", parsed.Messages[0].ID)
	return Result{MessageID: parsed.Messages[0].ID}, nil
}

// Ping fetches the phone number resource to verify the access token and
// phone number id without sending a message.
func (c *CloudChannel) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s?fields=id", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloud api request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cloud api returned %d: %s", resp.StatusCode, cloudErrorMessage(raw))
	}
	return nil
}

// cloudErrorMessage extracts the human-readable message from the Graph API
// error envelope, falling back to the raw body.
func cloudErrorMessage(raw []byte) string {
	var parsed cloudErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
