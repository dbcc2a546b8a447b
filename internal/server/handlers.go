package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/extract"
	"github.com/matzehuels/blockout/pkg/pipeline"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/scene"
)

type resolveResponse struct {
	DocHash   string            `json:"doc_hash"`
	Cached    bool              `json:"cached"`
	Stats     plan.Stats        `json:"stats"`
	Plan      json.RawMessage   `json:"plan"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
}

// options builds pipeline options from query parameters:
// formats=dot,svg adds artifacts, ceiling=false drops ceilings,
// detailed=true labels diagrams with positions, refresh=true skips the cache.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Config: s.cfg, Logger: s.logger, Formats: []string{pipeline.FormatJSON}}

	if f := q.Get("formats"); f != "" {
		for _, format := range strings.Split(f, ",") {
			format = strings.TrimSpace(format)
			if format == pipeline.FormatJSON || format == "" {
				continue
			}
			if err := pipeline.ValidateFormat(format); err != nil {
				return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", err.Error())
			}
			opts.Formats = append(opts.Formats, format)
		}
	}
	if q.Get("ceiling") == "false" {
		opts.Config.Shell.Ceiling = false
	}
	opts.Detailed = q.Get("detailed") == "true"
	opts.Refresh = q.Get("refresh") == "true"
	return opts, nil
}

func toResponse(res *pipeline.Result) resolveResponse {
	out := resolveResponse{
		DocHash: res.DocHash,
		Cached:  res.CacheInfo.PlanHit,
		Stats:   res.Stats.Stats,
		Plan:    json.RawMessage(res.Artifacts[pipeline.FormatJSON]),
	}
	for format, data := range res.Artifacts {
		if format == pipeline.FormatJSON {
			continue
		}
		if out.Artifacts == nil {
			out.Artifacts = make(map[string]string)
		}
		out.Artifacts[format] = string(data)
	}
	return out
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), body, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

type batchRequest struct {
	Documents []struct {
		Name     string          `json:"name"`
		Document json.RawMessage `json:"document"`
	} `json:"documents"`
}

type batchItem struct {
	Name   string           `json:"name"`
	Result *resolveResponse `json:"result,omitempty"`
	Error  *errorBody       `json:"error,omitempty"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid batch request"))
		return
	}

	jobs := make([]pipeline.Job, len(req.Documents))
	for i, d := range req.Documents {
		jobs[i] = pipeline.Job{Name: d.Name, Data: d.Document}
	}

	results := s.runner.Batch(r.Context(), jobs, s.cfg.Server.Workers, opts)
	items := make([]batchItem, len(results))
	for i, br := range results {
		items[i].Name = br.Name
		if br.Err != nil {
			items[i].Error = &errorBody{Code: errors.GetCode(br.Err), Message: errors.UserMessage(br.Err), Subjects: errors.Subjects(br.Err)}
			continue
		}
		resp := toResponse(br.Result)
		items[i].Result = &resp
	}
	writeJSON(w, http.StatusOK, map[string][]batchItem{"results": items})
}

type extractRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "extraction is not configured"))
		return
	}
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid extract request"))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "prompt is required"))
		return
	}
	model := req.Model
	if model == "" {
		model = s.cfg.Extract.Model
	}
	if err := errors.ValidateModelName(model); err != nil {
		s.writeError(w, r, err)
		return
	}

	raw, err := s.extractor.Extract(r.Context(), req.Prompt, model)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := extract.Sanitize(raw, s.cfg.SceneDefaults())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]scene.Document{"document": doc})
}
