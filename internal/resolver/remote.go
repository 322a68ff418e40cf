package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autofill/internal/facts"
	"autofill/internal/form"
)

// JobContext describes the application the form belongs to. Remote
// resolvers use it to tailor free-text answers.
type JobContext struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	URL     string `json:"url"`
}

type remoteRequest struct {
	Fields     []form.FieldDescriptor `json:"fields"`
	JobContext JobContext             `json:"job_context"`
}

type remoteResponse struct {
	Fields *form.ValueMap `json:"fields"`
}

// Remote posts the fields to an HTTP endpoint and reads back
// {"fields": {"<id>": value}}. Markup in returned strings is stripped, ids
// that were not asked for are dropped and answers for select and radio
// fields are mapped to option values with OptionValue.
type Remote struct {
	URL     string
	Job     JobContext
	client  *http.Client
	timeout time.Duration
}

// NewRemote creates a Remote. A nil client uses http.DefaultClient; a zero
// timeout leaves the request bounded only by ctx.
func NewRemote(url string, job JobContext, client *http.Client, timeout time.Duration) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{URL: url, Job: job, client: client, timeout: timeout}
}

func (r *Remote) Resolve(ctx context.Context, fields []form.FieldDescriptor) (*form.ValueMap, error) {
	if len(fields) == 0 {
		return form.NewValueMap(), nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	body, err := json.Marshal(remoteRequest{Fields: fields, JobContext: r.Job})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "autofill/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	asked := make(map[string]form.FieldDescriptor, len(fields))
	for _, f := range fields {
		asked[f.ID] = f
	}
	clean := facts.StripMarkup(out.Fields)
	for _, k := range clean.Keys() {
		f, ok := asked[k]
		if !ok {
			clean.Delete(k)
			continue
		}
		v, _ := clean.Get(k)
		clean.Set(k, OptionValue(f, v))
	}
	return clean, nil
}
