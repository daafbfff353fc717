package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPushoverURL is the Pushover message endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// Emergency messages repeat every retry seconds until acknowledged or until
// expire seconds have passed.
const (
	pushoverEmergency = 2
	pushoverRetry     = 60
	pushoverExpire    = 3600
)

var pushoverPriorities = map[Priority]int{
	PriorityLow:    -1,
	PriorityNormal: 0,
	PriorityHigh:   1,
	PriorityUrgent: pushoverEmergency,
}

// PushoverChannel pages one Pushover user about check transitions. A
// transition into critical is sent as an emergency message.
type PushoverChannel struct {
	APIToken string
	UserKey  string
	APIURL   string
	client   *http.Client
}

// PushoverConfig configures a Pushover channel.
type PushoverConfig struct {
	APIToken string `json:"api_token"`
	UserKey  string `json:"user_key"`
	APIURL   string `json:"api_url,omitempty"`
}

func NewPushoverChannel(cfg PushoverConfig) *PushoverChannel {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultPushoverURL
	}
	return &PushoverChannel{
		APIToken: cfg.APIToken,
		UserKey:  cfg.UserKey,
		APIURL:   apiURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *PushoverChannel) Type() string {
	return "pushover"
}

func (p *PushoverChannel) Send(ctx context.Context, msg *Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL, strings.NewReader(p.form(msg).Encode()))
	if err != nil {
		return fmt.Errorf("create pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return deliver(p.client, req, p.Type())
}

func (p *PushoverChannel) form(msg *Message) url.Values {
	priority := pushoverPriorities[msg.Priority]
	form := url.Values{
		"token":    {p.APIToken},
		"user":     {p.UserKey},
		"title":    {msg.Title},
		"message":  {msg.Body},
		"priority": {strconv.Itoa(priority)},
	}
	if priority == pushoverEmergency {
		form.Set("retry", strconv.Itoa(pushoverRetry))
		form.Set("expire", strconv.Itoa(pushoverExpire))
	}
	return form
}
