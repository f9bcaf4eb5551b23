// Package smsgateway entrega SMS contra un gateway HTTP estilo Telnyx
// (POST /v2/messages con bearer key). El backend es trivialmente
// swappeable: cualquier cosa que implemente kafka.Sender sirve.
package smsgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"paws-and-places/internal/platform/httpclient"
)

const defaultTimeout = 15 * time.Second

type Sender struct {
	http   *httpclient.Client
	apiKey string
	from   string
}

func NewSender(baseURL, apiKey, fromNumber string) (*Sender, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("smsgateway: base url required")
	}
	c, err := httpclient.NewWithBaseURL(baseURL, defaultTimeout)
	if err != nil {
		return nil, err
	}
	return &Sender{
		http:   c,
		apiKey: strings.TrimSpace(apiKey),
		from:   strings.TrimSpace(fromNumber),
	}, nil
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Send despacha un SMS. Error no-nil si el gateway responde no-2xx o
// reporta errores en el body; quien decide reintentar es el consumer.
func (s *Sender) Send(ctx context.Context, to, body string) error {
	var resp sendResponse
	err := s.http.DoJSON(ctx, http.MethodPost, "/v2/messages",
		map[string]string{"Authorization": "Bearer " + s.apiKey},
		sendRequest{From: s.from, To: to, Text: body},
		&resp,
	)
	if err != nil {
		return fmt.Errorf("smsgateway: %w", err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("smsgateway: %s: %s", resp.Errors[0].Code, resp.Errors[0].Detail)
	}
	return nil
}
