package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ntfyPriorities maps transition urgency onto ntfy's 1-5 scale; 1 is unused.
var ntfyPriorities = map[Priority]int{
	PriorityLow:    2,
	PriorityNormal: 3,
	PriorityHigh:   4,
	PriorityUrgent: 5,
}

// NtfyChannel publishes check transitions to one ntfy topic.
type NtfyChannel struct {
	ServerURL string
	Topic     string
	Token     string
	client    *http.Client
}

// NtfyConfig configures an ntfy channel.
type NtfyConfig struct {
	ServerURL string `json:"server_url"`
	Topic     string `json:"topic"`
	Token     string `json:"token,omitempty"`
}

// ParseNtfyURL splits a topic URL such as https://ntfy.sh/alerts into server
// and topic.
func ParseNtfyURL(raw string) (NtfyConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return NtfyConfig{}, fmt.Errorf("parse ntfy url: %w", err)
	}
	topic := strings.Trim(u.Path, "/")
	if u.Host == "" || topic == "" {
		return NtfyConfig{}, fmt.Errorf("ntfy url %q must name a server and a topic", raw)
	}
	i := strings.LastIndex(topic, "/")
	u.Path = "/" + topic[:max(i, 0)]
	return NtfyConfig{
		ServerURL: strings.TrimSuffix(u.String(), "/"),
		Topic:     topic[i+1:],
	}, nil
}

// NewNtfyChannel defaults to the public ntfy.sh server.
func NewNtfyChannel(cfg NtfyConfig) *NtfyChannel {
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = "https://ntfy.sh"
	}
	return &NtfyChannel{
		ServerURL: strings.TrimSuffix(serverURL, "/"),
		Topic:     cfg.Topic,
		Token:     cfg.Token,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *NtfyChannel) Type() string {
	return "ntfy"
}

// Send posts the transition to ntfy's JSON publishing endpoint. Recoveries
// go out at the default priority.
func (n *NtfyChannel) Send(ctx context.Context, msg *Message) error {
	payload := struct {
		Topic    string   `json:"topic"`
		Title    string   `json:"title"`
		Message  string   `json:"message"`
		Tags     []string `json:"tags,omitempty"`
		Priority int      `json:"priority,omitempty"`
	}{
		Topic:    n.Topic,
		Title:    msg.Title,
		Message:  msg.Body,
		Tags:     msg.Tags,
		Priority: ntfyPriorities[msg.Priority],
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal ntfy message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.ServerURL+"/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create ntfy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.Token)
	}
	return deliver(n.client, req, n.Type())
}

// deliver sends req and turns an error status into an error naming service.
func deliver(client *http.Client, req *http.Request, service string) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s request: %w", service, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned status %d", service, resp.StatusCode)
	}
	return nil
}
