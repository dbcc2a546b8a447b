package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/pipeline"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/scene"
)

const livingDoc = `{"rooms":[{"name":"living"}],"objects":[{"id":"lamp1","type":"lamp","parent":"living","position":{"x":1,"y":2}}]}`

type stubExtractor struct {
	out   string
	err   error
	model string
}

func (s *stubExtractor) Extract(_ context.Context, _, model string) ([]byte, error) {
	s.model = model
	return []byte(s.out), s.err
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(pipeline.NewRunner(nil, nil, nil), config.Default(), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("no request id")
	}
}

func TestRequestIDPropagates(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "6f1c3c4e-2a9b-4a39-9d8e-0c6f0f6d1a11")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "6f1c3c4e-2a9b-4a39-9d8e-0c6f0f6d1a11" {
		t.Errorf("request id = %q", got)
	}
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t)
	resp, out := post(t, srv.URL+"/v1/resolve?formats=dot", livingDoc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, out["error"])
	}

	p, err := plan.Decode(out["plan"])
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	lamp, ok := p.Placement("lamp1")
	if !ok || lamp.WorldPosition.X != 1 || lamp.WorldPosition.Y != 2 {
		t.Errorf("lamp1 = %+v", lamp)
	}
	if room, _ := p.Room("living"); len(room.Panels) != 6 {
		t.Errorf("living has %d panels", len(room.Panels))
	}

	var artifacts map[string]string
	_ = json.Unmarshal(out["artifacts"], &artifacts)
	if !strings.Contains(artifacts["dot"], `"living" -> "lamp1"`) {
		t.Errorf("dot artifact = %q", artifacts["dot"])
	}
}

func TestResolveNoCeiling(t *testing.T) {
	srv := newTestServer(t)
	_, out := post(t, srv.URL+"/v1/resolve?ceiling=false", livingDoc)
	p, err := plan.Decode(out["plan"])
	if err != nil {
		t.Fatal(err)
	}
	if room, _ := p.Room("living"); len(room.Panels) != 5 {
		t.Errorf("living has %d panels, want 5", len(room.Panels))
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   errors.Code
	}{
		{"bad json", "", `{`, http.StatusUnprocessableEntity, errors.ErrCodeSchema},
		{"cycle", "", `{"rooms":[],"objects":[{"id":"a","type":"x","parent":"a"}]}`, http.StatusUnprocessableEntity, errors.ErrCodeCyclicAttachment},
		{"dangling", "", `{"rooms":[],"objects":[{"id":"a","type":"x","parent":"nowhere"}]}`, http.StatusUnprocessableEntity, errors.ErrCodeDanglingParent},
		{"bad format", "?formats=png", livingDoc, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, srv.URL+"/v1/resolve"+tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var e errorBody
			if err := json.Unmarshal(out["error"], &e); err != nil {
				t.Fatalf("error body: %v", err)
			}
			if e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestResolveBodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxBodyBytes = 16
	srv := httptest.NewServer(New(pipeline.NewRunner(nil, nil, nil), cfg).Handler())
	defer srv.Close()

	resp, _ := post(t, srv.URL+"/v1/resolve", livingDoc)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestBatch(t *testing.T) {
	srv := newTestServer(t)
	body := `{"documents":[
		{"name":"good","document":` + livingDoc + `},
		{"name":"bad","document":{"rooms":[{"name":"r"},{"name":"r"}],"objects":[]}}
	]}`
	resp, out := post(t, srv.URL+"/v1/resolve/batch", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var items []batchItem
	if err := json.Unmarshal(out["results"], &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("%d results", len(items))
	}
	if items[0].Name != "good" || items[0].Result == nil || items[0].Error != nil {
		t.Errorf("good = %+v", items[0])
	}
	if items[1].Error == nil || items[1].Error.Code != errors.ErrCodeDuplicateID {
		t.Errorf("bad = %+v", items[1])
	}
}

func TestExtract(t *testing.T) {
	stub := &stubExtractor{out: `{"rooms":[{"name":"bedroom"}],"objects":[{"id":"desk","type":"desk","parent":"bedroom","position":{"x":1,"y":2,"z":0}}]}`}
	srv := newTestServer(t, WithExtractor(stub))

	resp, out := post(t, srv.URL+"/v1/extract", `{"prompt":"a bedroom with a desk"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, out["error"])
	}
	if stub.model != config.DefaultModel {
		t.Errorf("model = %q, want %q", stub.model, config.DefaultModel)
	}

	var doc scene.Document
	if err := json.Unmarshal(out["document"], &doc); err != nil {
		t.Fatal(err)
	}
	if w := doc.Rooms[0].Width; w == nil || *w != 400 {
		t.Errorf("room width not defaulted: %v", w)
	}
	if h := doc.Objects[0].Dimensions["height"]; h == nil || *h != 75 {
		t.Errorf("desk height not defaulted")
	}
}

func TestExtractErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		resp, _ := post(t, newTestServer(t).URL+"/v1/extract", `{"prompt":"x"}`)
		if resp.StatusCode != http.StatusNotImplemented {
			t.Errorf("status = %d, want 501", resp.StatusCode)
		}
	})
	t.Run("empty prompt", func(t *testing.T) {
		resp, _ := post(t, newTestServer(t, WithExtractor(&stubExtractor{})).URL+"/v1/extract", `{"prompt":"  "}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
	t.Run("upstream failure", func(t *testing.T) {
		stub := &stubExtractor{err: errors.New(errors.ErrCodeNetwork, "openai: 503")}
		resp, _ := post(t, newTestServer(t, WithExtractor(stub)).URL+"/v1/extract", `{"prompt":"x"}`)
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", resp.StatusCode)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.Schema("r", "rooms[0].width", "bad"), http.StatusUnprocessableEntity},
		{errors.OrderingInvariant("a", "b"), http.StatusInternalServerError},
		{errors.New(errors.ErrCodeInvalidConfig, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeRateLimited, "x"), http.StatusBadGateway},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
