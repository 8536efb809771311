package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 10 * time.Second
)

//Error is the single failure type the transport surfaces. Status is the
//http status code when the server answered, zero when the request never
//completed (unreachable host, timeout).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}

	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client struct {
	base   string
	http   *http.Client
	logger *logrus.Logger
}

func New(base string, logger *logrus.Logger) *Client {

	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}

	return c.do(req)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	c.logger.Debugf("%s %s\n", req.Method, req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(data))
		if message == "" {
			message = resp.Status
		}

		return nil, &Error{Status: resp.StatusCode, Message: message}
	}

	return unwrapEnvelope(data), nil
}

//unwrapEnvelope handles the gateway format where the payload arrives as a
//json encoded string under a body field instead of a direct object. Callers
//always see the decoded structure.
func unwrapEnvelope(data []byte) json.RawMessage {
	var envelope struct {
		Body *string `json:"body"`
	}

	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Body != nil {
		return json.RawMessage(*envelope.Body)
	}

	return json.RawMessage(data)
}
