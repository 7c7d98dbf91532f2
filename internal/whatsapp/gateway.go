package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"breed_site_backend/platform/config"
	"breed_site_backend/platform/logger"
	"breed_site_backend/platform/phone"
)

// GatewayChannel sends freeform messages through a Twilio-compatible REST
// gateway. Addresses use the whatsapp:+<number> scheme and the request is a
// form-encoded POST authenticated with HTTP Basic Auth.
type GatewayChannel struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
	log        *logger.Logger
}

type gatewaySendResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // set on error responses
	Code    int    `json:"code"`
}

func NewGatewayChannel(cfg config.WhatsAppConfig, log *logger.Logger) *GatewayChannel {
	return &GatewayChannel{
		baseURL:    strings.TrimRight(cfg.GetGatewayBaseURL(), "/"),
		accountSID: cfg.GetGatewayAccountSID(),
		authToken:  cfg.GetGatewayAuthToken(),
		from:       cfg.GetGatewayFromNumber(),
		http:       &http.Client{Timeout: cfg.GetProviderTimeout()},
		log:        log,
	}
}

func (g *GatewayChannel) Name() string { return "gateway" }

func (g *GatewayChannel) Send(ctx context.Context, to, body string) (Result, error) {
	form := url.Values{}
	form.Set("From", whatsappAddress(g.from))
	form.Set("To", whatsappAddress(to))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", g.baseURL, g.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.SetBasicAuth(g.accountSID, g.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read gateway response: %w", err)
	}

	var parsed gatewaySendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return Result{}, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return Result{}, fmt.Errorf("decode gateway response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := parsed.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return Result{}, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, msg)
	}

	g.log.Info("whatsapp sent via gateway", "messageSid", parsed.SID)
	return Result{MessageID: parsed.SID}, nil
}

// Ping fetches the account resource to verify the SID and auth token.
func (g *GatewayChannel) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", g.baseURL, g.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.accountSID, g.authToken)

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// whatsappAddress converts a phone number in any accepted local format to the
// whatsapp:+<E.164 digits> scheme the gateway expects.
func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:+" + phone.NormalizeZA(number)
}
