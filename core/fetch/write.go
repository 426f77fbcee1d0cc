package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/paged"
)

// WriteOptions of a write.
type WriteOptions struct {
	// UseAuth attaches the bearer token when one is present.
	UseAuth  bool
	Resource string
	Loading  Loading
}

// Send performs a write on the primary base. A transport failure or a 5xx is retried once on
// the direct base with the same body and the same Idempotency-Key. Nothing else is retried.
func (e *Engine) Send(ctx context.Context, method, path string, body *Body, opts WriteOptions) (*Response, error) {
	if opts.Loading != nil {
		opts.Loading.Start()
		defer opts.Loading.Done()
	}
	resource := opts.Resource
	if resource == "" {
		resource = path
	}

	creds := credsNone
	if opts.UseAuth {
		creds = credsIfPresent
	}
	rq := request{
		tier:           tier{name: TierPrimary, base: e.conf.BaseURL, creds: creds},
		method:         method,
		path:           path,
		body:           body,
		idempotencyKey: uuid.NewString(),
	}

	resp, err := e.write(ctx, rq, resource)
	if err == nil {
		return resp, nil
	}
	if !retryable(err) || e.conf.DirectBaseURL == "" || ctx.Err() != nil {
		return nil, e.writeFailed(rq, resource, err)
	}

	e.logger.Warn("write failed, retrying on the direct base", e.fields(rq.tier, resource, path), err)
	rq.tier = tier{name: TierDirect, base: e.conf.DirectBaseURL, creds: creds}
	resp, err = e.write(ctx, rq, resource)
	if err != nil {
		return nil, e.writeFailed(rq, resource, err)
	}
	return resp, nil
}

// Write is Send followed by normalization. An empty 2xx body (eg. 204) is an empty success.
func (e *Engine) Write(ctx context.Context, method, path string, body *Body, opts WriteOptions) (paged.Result, error) {
	resp, err := e.Send(ctx, method, path, body, opts)
	if err != nil {
		return paged.Result{}, err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return paged.Result{Success: true, Rows: []core.Record{}, Source: resp.Tier}, nil
	}
	res, err := paged.Decode(resp.Body)
	if err != nil {
		if msg, failed := failureOf(resp.Body); failed {
			return paged.Result{}, validationOf(&core.HTTPError{Status: resp.Status, Message: msg, Body: resp.Body})
		}
		return paged.Result{}, errors.Wrapf(err, "%s %s", method, path)
	}
	res.Source = resp.Tier
	return res, nil
}

func (e *Engine) write(ctx context.Context, rq request, resource string) (*Response, error) {
	start := e.now()
	resp, err := e.roundTrip(ctx, rq)
	e.observe(ctx, rq.tier.name, resource, start, err)
	return resp, err
}

func (e *Engine) writeFailed(rq request, resource string, err error) error {
	err = writeError(err)
	e.logger.Error("write failed", e.fields(rq.tier, resource, rq.path), err)
	return err
}

func retryable(err error) bool {
	if core.IsConnectionExhausted(err) || core.IsSessionExpired(err) {
		return false
	}
	if core.IsTransport(err) {
		return true
	}
	var herr *core.HTTPError
	return errors.As(err, &herr) && herr.Status >= 500
}

// writeError turns a plain 4xx into a ValidationError. Expired sessions and exhaustion pass through.
func writeError(err error) error {
	if core.IsConnectionExhausted(err) || core.IsSessionExpired(err) {
		return err
	}
	var herr *core.HTTPError
	if errors.As(err, &herr) && herr.Status >= 400 && herr.Status < 500 {
		return validationOf(herr)
	}
	return err
}

// validationOf reads the message and the field errors of a rejected write. Recognized field
// shapes: `errors` or `fields` as an object or a list, FastAPI `detail` lists, and a bare
// object of field messages.
func validationOf(herr *core.HTTPError) *core.ValidationError {
	verr := &core.ValidationError{Err: herr, Status: herr.Status, Message: herr.Message}
	if verr.Message == "" {
		verr.Message = http.StatusText(herr.Status)
	}

	var b map[string]interface{}
	if json.Unmarshal(herr.Body, &b) != nil {
		return verr
	}
	for _, key := range []string{"errors", "fields", "detail"} {
		if flds := fieldsOf(b[key]); len(flds) > 0 {
			verr.Fields = flds
			return verr
		}
	}
	if herr.Message == "" {
		verr.Fields = fieldsOf(b)
	}
	return verr
}

func fieldsOf(v interface{}) []core.FieldError {
	var flds []core.FieldError
	switch val := v.(type) {
	case map[string]interface{}:
		for k, msg := range val {
			switch m := msg.(type) {
			case string:
				flds = append(flds, core.FieldError{Field: k, Error: m})
			case []interface{}:
				if len(m) > 0 {
					if s, ok := m[0].(string); ok {
						flds = append(flds, core.FieldError{Field: k, Error: s})
					}
				}
			}
		}
	case []interface{}:
		for _, item := range val {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			rec := core.Record(m)
			field := rec.String("field", "param", "path")
			if loc, ok := m["loc"].([]interface{}); ok && len(loc) > 0 {
				field = core.Record{"f": loc[len(loc)-1]}.String("f")
			}
			msg := rec.String("message", "msg")
			if field != "" && msg != "" {
				flds = append(flds, core.FieldError{Field: field, Error: msg})
			}
		}
	}
	sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
	return flds
}
