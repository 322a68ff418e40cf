package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autofill/internal/form"
)

func TestRemote_Resolve(t *testing.T) {
	t.Parallel()

	type captured struct {
		Fields []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"fields"`
		JobContext JobContext `json:"job_context"`
	}
	reqs := make(chan captured, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c captured
		_ = json.NewDecoder(r.Body).Decode(&c)
		reqs <- c
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fields":{"why":"<p>I love <b>data</b></p>","extra":"dropped","relocate":true},"metadata":{"llm_matches":2}}`))
	}))
	t.Cleanup(srv.Close)

	fields := []form.FieldDescriptor{
		{ID: "why", Label: "Why us?", Kind: form.KindTextarea},
		{ID: "relocate", Label: "Relocate?", Kind: form.KindCheckbox},
	}
	job := JobContext{Title: "Data Engineer", Company: "Acme", URL: "https://acme.example/jobs/1"}

	r := NewRemote(srv.URL, job, srv.Client(), 2*time.Second)
	got, err := r.Resolve(context.Background(), fields)
	require.NoError(t, err)

	c := <-reqs
	require.Len(t, c.Fields, 2)
	assert.Equal(t, "why", c.Fields[0].ID)
	assert.Equal(t, job, c.JobContext)

	assert.Equal(t, []string{"why", "relocate"}, got.Keys())
	v, _ := got.Get("why")
	assert.Equal(t, "I love data", v.String())
	v, _ = got.Get("relocate")
	assert.True(t, v.True())
}

func TestRemote_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	r := NewRemote(srv.URL, JobContext{}, nil, time.Second)
	_, err := r.Resolve(context.Background(), []form.FieldDescriptor{{ID: "x"}})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "http status 502"))
	assert.True(t, strings.Contains(err.Error(), "model unavailable"))
}

func TestRemote_NoFieldsSkipsRequest(t *testing.T) {
	t.Parallel()

	r := NewRemote("http://127.0.0.1:0/never", JobContext{}, nil, time.Second)
	got, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

// TestRemote_MapsAnswersToOptionValues turns option text answers into the
// option values fill compares against.
func TestRemote_MapsAnswersToOptionValues(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fields":{"gender":"Female","country":"I live in <b>Canada</b>","why":"Female founders"}}`))
	}))
	t.Cleanup(srv.Close)

	fields := []form.FieldDescriptor{
		{ID: "gender", Kind: form.KindRadio, Options: []form.Option{{Value: "m", Text: "Male"}, {Value: "f", Text: "Female"}}},
		{ID: "country", Kind: form.KindSelect, Options: []form.Option{{Value: "us", Text: "United States"}, {Value: "ca", Text: "Canada"}}},
		{ID: "why", Kind: form.KindTextarea},
	}
	got, err := NewRemote(srv.URL, JobContext{}, srv.Client(), time.Second).Resolve(context.Background(), fields)
	require.NoError(t, err)

	for id, want := range map[string]string{"gender": "f", "country": "ca", "why": "Female founders"} {
		v, ok := got.Get(id)
		require.True(t, ok, id)
		assert.Equal(t, want, v.String(), id)
	}
}
