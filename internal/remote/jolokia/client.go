// Package jolokia implements remote sessions over the Jolokia HTTP/JSON
// bridge to JMX.
package jolokia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jandubois/jmxcheck/internal/remote"
)

// DefaultTimeout bounds a single request to the agent.
const DefaultTimeout = 30 * time.Second

// Dialer opens Jolokia sessions.
type Dialer struct {
	Timeout time.Duration
}

// NewDialer creates a dialer whose requests time out after timeout.
func NewDialer(timeout time.Duration) *Dialer {
	return &Dialer{Timeout: timeout}
}

// Open validates the agent URL and checks that the agent answers a version
// request with the given credentials.
func (d *Dialer) Open(ctx context.Context, rawURL string, creds *remote.Credentials) (remote.Session, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", remote.ErrBadURL, rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", remote.ErrBadURL, rawURL)
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    u.String(),
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
	}

	var version struct {
		Agent    string `json:"agent"`
		Protocol string `json:"protocol"`
	}
	if err := c.do(ctx, &request{Type: "version"}, &version); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", remote.ErrConnect, rawURL, err)
	}
	slog.Debug("connected to agent", "url", rawURL, "agent", version.Agent, "protocol", version.Protocol)
	return c, nil
}

// Client is an open session with one agent.
type Client struct {
	baseURL    string
	creds      *remote.Credentials
	httpClient *http.Client
}

type request struct {
	Type      string `json:"type"`
	MBean     string `json:"mbean,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Operation string `json:"operation,omitempty"`
	Path      string `json:"path,omitempty"`
}

type response struct {
	Status    int             `json:"status"`
	Value     json.RawMessage `json:"value"`
	Error     string          `json:"error"`
	ErrorType string          `json:"error_type"`
}

// statusError is a failure reported inside the response envelope.
type statusError struct {
	Status    int
	ErrorType string
	Message   string
}

func (e *statusError) Error() string {
	if e.ErrorType != "" {
		return fmt.Sprintf("agent status %d: %s: %s", e.Status, e.ErrorType, e.Message)
	}
	return fmt.Sprintf("agent status %d: %s", e.Status, e.Message)
}

func (e *statusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return remote.ErrInstanceNotFound
	}
	return nil
}

func (c *Client) do(ctx context.Context, body *request, value any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.creds != nil {
		req.SetBasicAuth(c.creds.User, c.creds.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Status != http.StatusOK {
		return &statusError{Status: env.Status, ErrorType: env.ErrorType, Message: env.Error}
	}

	if value != nil && len(env.Value) > 0 {
		dec := json.NewDecoder(bytes.NewReader(env.Value))
		dec.UseNumber()
		if err := dec.Decode(value); err != nil {
			return fmt.Errorf("decode value: %w", err)
		}
	}
	return nil
}

// ListObjects returns the names of every registered object.
func (c *Client) ListObjects(ctx context.Context) ([]remote.ObjectName, error) {
	var raw []string
	if err := c.do(ctx, &request{Type: "search", MBean: "*:*"}, &raw); err != nil {
		return nil, err
	}
	sort.Strings(raw)

	names := make([]remote.ObjectName, 0, len(raw))
	for _, s := range raw {
		name, err := remote.ParseObjectName(s)
		if err != nil {
			slog.Debug("skipping unparsable object name", "name", s, "error", err)
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

type attrInfo struct {
	Type string `json:"type"`
}

type opInfo struct {
	Args []json.RawMessage `json:"args"`
	Ret  string            `json:"ret"`
}

type objectInfo struct {
	Attr map[string]attrInfo       `json:"attr"`
	Op   map[string]json.RawMessage `json:"op"`
}

// Describe lists the attributes and zero-argument operations of name, each
// sorted by name.
func (c *Client) Describe(ctx context.Context, name remote.ObjectName) (*remote.ObjectInfo, error) {
	var info objectInfo
	if err := c.do(ctx, &request{Type: "list", Path: listPath(name)}, &info); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", remote.ErrIntrospection, name, err)
	}

	out := &remote.ObjectInfo{}
	for attr, ai := range info.Attr {
		out.Attributes = append(out.Attributes, remote.MemberInfo{Name: attr, Type: ai.Type})
	}
	for op, raw := range info.Op {
		overloads, err := decodeOverloads(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: operation %s: %v", remote.ErrIntrospection, name, op, err)
		}
		for _, o := range overloads {
			if len(o.Args) == 0 {
				out.Operations = append(out.Operations, remote.MemberInfo{Name: op, Type: o.Ret})
				break
			}
		}
	}
	sort.Slice(out.Attributes, func(i, j int) bool { return out.Attributes[i].Name < out.Attributes[j].Name })
	sort.Slice(out.Operations, func(i, j int) bool { return out.Operations[i].Name < out.Operations[j].Name })
	return out, nil
}

// decodeOverloads accepts a single operation description or the array the
// agent sends for overloaded operations.
func decodeOverloads(raw json.RawMessage) ([]opInfo, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ops []opInfo
		err := json.Unmarshal(trimmed, &ops)
		return ops, err
	}
	var op opInfo
	if err := json.Unmarshal(trimmed, &op); err != nil {
		return nil, err
	}
	return []opInfo{op}, nil
}

var pathEscaper = strings.NewReplacer("!", "!!", "/", "!/")

// listPath builds the list request path "domain/properties", escaping the
// agent's path separator.
func listPath(name remote.ObjectName) string {
	return pathEscaper.Replace(name.Domain()) + "/" + pathEscaper.Replace(name.Properties())
}

// GetAttribute reads one attribute.
func (c *Client) GetAttribute(ctx context.Context, name remote.ObjectName, attribute string) (any, error) {
	var value any
	if err := c.do(ctx, &request{Type: "read", MBean: name.String(), Attribute: attribute}, &value); err != nil {
		return nil, accessError(name, attribute, err)
	}
	return value, nil
}

// Invoke calls a zero-argument operation.
func (c *Client) Invoke(ctx context.Context, name remote.ObjectName, operation string) (any, error) {
	var value any
	if err := c.do(ctx, &request{Type: "exec", MBean: name.String(), Operation: operation}, &value); err != nil {
		return nil, accessError(name, operation, err)
	}
	return value, nil
}

func accessError(name remote.ObjectName, member string, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		return &remote.AccessError{Object: name, Member: member, Err: err}
	}
	return fmt.Errorf("%s on %s: %w", member, name, err)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
