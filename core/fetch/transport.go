package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

type credentials int

const (
	credsNone credentials = iota
	credsRequired
	credsIfPresent
)

type tier struct {
	name  string
	base  string
	creds credentials
}

type request struct {
	tier           tier
	method         string
	path           string
	params         url.Values
	body           *Body
	idempotencyKey string
}

// Response is a raw 2xx answer.
type Response struct {
	Tier   string
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v interface{}) error {
	return errors.Wrap(json.Unmarshal(r.Body, v), "decoding response")
}

func buildURL(base, path string, params url.Values) string {
	u := base + path
	if len(params) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return u + sep + params.Encode()
}

// roundTrip performs one attempt against one tier. Non-2xx answers are classified into errors.
func (e *Engine) roundTrip(ctx context.Context, rq request) (*Response, error) {
	u := buildURL(rq.tier.base, rq.path, rq.params)

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &core.TransportError{Tier: rq.tier.name, URL: u, Err: errors.Wrap(err, "rate limiter")}
		}
	}

	actx, cancel := context.WithTimeout(ctx, e.conf.Timeout)
	defer cancel()

	var rdr io.Reader
	if rq.body != nil {
		rdr = bytes.NewReader(rq.body.Data)
	}
	req, err := http.NewRequestWithContext(actx, rq.method, u, rdr)
	if err != nil {
		return nil, &core.TransportError{Tier: rq.tier.name, URL: u, Err: err}
	}

	e.hmu.RLock()
	for k, vs := range e.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	e.hmu.RUnlock()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", newRequestID(e.now()))
	if rq.body != nil {
		req.Header.Set("Content-Type", rq.body.ContentType)
	}
	if rq.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", rq.idempotencyKey)
	}
	credentialed := false
	if rq.tier.creds != credsNone {
		if tok := e.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			credentialed = true
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &core.TransportError{Tier: rq.tier.name, URL: u, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &core.TransportError{Tier: rq.tier.name, URL: u, Err: errors.Wrap(err, "reading body")}
	}
	if err := classify(resp.StatusCode, data, credentialed); err != nil {
		return nil, err
	}
	return &Response{Tier: rq.tier.name, Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// classify maps a response onto the error kinds. A nil error means a usable 2xx.
func classify(status int, body []byte, credentialed bool) error {
	if status >= 200 && status < 300 {
		if msg, failed := failureOf(body); failed && exhausted(msg) {
			return &core.ConnectionExhaustedError{Err: &core.HTTPError{Status: status, Message: msg, Body: body}}
		}
		return nil
	}

	herr := &core.HTTPError{Status: status, Message: messageOf(body), Body: body}
	switch {
	case exhausted(herr.Message):
		return &core.ConnectionExhaustedError{Err: herr}
	case status == http.StatusUnauthorized && credentialed:
		return &core.SessionExpiredError{Err: herr}
	default:
		return herr
	}
}

var exhaustionMarkers = []string{
	"too many connections",
	"er_con_count_error",
	"too many clients",
	"remaining connection slots",
	"connection pool exhausted",
}

func exhausted(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range exhaustionMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// failureOf reports the message of a `{success: false}` body.
func failureOf(body []byte) (string, bool) {
	var b map[string]interface{}
	if json.Unmarshal(body, &b) != nil {
		return "", false
	}
	if ok, isBool := b["success"].(bool); !isBool || ok {
		return "", false
	}
	return messageOf(body), true
}

// messageOf extracts the backend message of an error body, falling back to the raw text.
func messageOf(body []byte) string {
	var b map[string]interface{}
	if err := json.Unmarshal(body, &b); err == nil {
		rec := core.Record(b)
		if msg := rec.String("message", "error"); msg != "" {
			return msg
		}
		switch d := b["detail"].(type) {
		case string:
			return d
		case []interface{}:
			msgs := make([]string, 0, len(d))
			for _, item := range d {
				if m, ok := item.(map[string]interface{}); ok {
					if s := core.Record(m).String("msg", "message"); s != "" {
						msgs = append(msgs, s)
					}
				}
			}
			return strings.Join(msgs, "; ")
		}
		return ""
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
