package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrLineOffline is shown to the operator as a dismissible notice.
var ErrLineOffline = errors.New("switchboard not connected")

var ErrInvalidNumber = errors.New("telephony: invalid dialable number")

// Dialer originates an outbound call for an operator's extension.
type Dialer interface {
	Originate(ctx context.Context, operatorID, number string) error
}

// Dial refuses unless the operator's line is online, then normalizes the
// number and hands it to d.
func Dial(ctx context.Context, d Dialer, line *Line, operatorID, raw string) (string, error) {
	if line == nil || line.Status() != LineOnline {
		return "", ErrLineOffline
	}
	number, err := NormalizeNumber(raw)
	if err != nil {
		return "", err
	}
	if d == nil {
		return "", errors.New("telephony: dialer not configured")
	}
	if err := d.Originate(ctx, operatorID, number); err != nil {
		return "", err
	}
	return number, nil
}

// NormalizeNumber strips separators and keeps digits, '*', '#', and a
// leading '+'.
func NormalizeNumber(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '*', r == '#':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ', r == '-', r == '(', r == ')', r == '.':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
		}
	}
	out := b.String()
	if strings.TrimPrefix(out, "+") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return out, nil
}

// GatewayDialer asks a SIP gateway's HTTP API to originate
// sip:<number>@<domain> from the operator's extension.
type GatewayDialer struct {
	URL    string
	Domain string
	Client *http.Client
}

func NewGatewayDialer(url, domain string) *GatewayDialer {
	return &GatewayDialer{URL: url, Domain: domain, Client: &http.Client{Timeout: 10 * time.Second}}
}

type originateRequest struct {
	Operator string `json:"operator"`
	Target   string `json:"target"`
}

func (g *GatewayDialer) Originate(ctx context.Context, operatorID, number string) error {
	body, err := json.Marshal(originateRequest{
		Operator: operatorID,
		Target:   fmt.Sprintf("sip:%s@%s", number, g.Domain),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sip gateway: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("sip gateway: status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
