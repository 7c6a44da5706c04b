package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/integrations"
	schemaio "github.com/matzehuels/schemagraph/pkg/io"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/pipeline"
	"github.com/matzehuels/schemagraph/pkg/render"
	"github.com/matzehuels/schemagraph/pkg/render/nodelink"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

type errorBody struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
	Entity  string      `json:"entity,omitempty"`
}

type sobjectsResponse struct {
	Version  string                 `json:"version"`
	Count    int                    `json:"count"`
	SObjects []schema.EntitySummary `json:"sobjects"`
}

type describeResponse struct {
	Version  string                 `json:"version"`
	Describe *schema.EntityDescribe `json:"describe"`
	Parents  []schema.ParentRow     `json:"parents"`
	Children []schema.ChildRow      `json:"children"`
	// Fields is the describe's field list after the type, search, sort and
	// desc query parameters are applied.
	Fields []schema.FieldRef `json:"fields"`
}

type diagramResponse struct {
	RequestID string         `json:"request_id"`
	Root      string         `json:"root"`
	Version   string         `json:"version"`
	Layout    layout.Mode    `json:"layout"`
	CacheHit  bool           `json:"cache_hit"`
	Stats     pipeline.Stats `json:"stats"`
	layout.FlowGraph
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"diagrams":  s.runner.CachedDiagrams(),
		"describes": s.runner.Describes.Len(),
	})
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	if s.metadata == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no org connected"))
		return
	}
	refresh, err := queryBool(r.URL.Query(), "refresh", false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	versions, err := s.metadata.APIVersions(r.Context(), refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (s *Server) handleSObjects(w http.ResponseWriter, r *http.Request) {
	if s.metadata == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no org connected"))
		return
	}
	q := r.URL.Query()
	version, err := s.version(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	custom, err := queryBool(q, "custom", false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := queryBool(q, "refresh", false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.metadata.ListSObjects(r.Context(), version, refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list = schema.SummaryFilter{CustomOnly: custom, Search: q.Get("search")}.Filter(list)
	writeJSON(w, http.StatusOK, sobjectsResponse{Version: version, Count: len(list), SObjects: list})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "object")
	if err := errors.ValidateEntityName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	version, err := s.version(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filter, err := fieldFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.runner.Describes.GetOrFetch(r.Context(), version, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, describeResponse{
		Version:  version,
		Describe: d,
		Parents:  nonNil(schema.ParentRelationships(d)),
		Children: nonNil(schema.ChildRelationships(d)),
		Fields:   filter.Filter(d.Fields),
	})
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	d, ok := s.diagram(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, diagramResponse{
		RequestID: d.RequestID,
		Root:      d.Root,
		Version:   d.Version,
		Layout:    d.Positioned.Mode,
		CacheHit:  d.CacheHit,
		Stats:     d.Stats,
		FlowGraph: d.Flow,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	var opts nodelink.Options
	if opts.Detailed, err = queryBool(q, "detailed", false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.HideEdgeLabels, err = queryBool(q, "hide_edge_labels", false); err != nil {
		s.writeError(w, r, err)
		return
	}

	d, ok := s.diagram(w, r)
	if !ok {
		return
	}
	data, err := schemaio.Render(r.Context(), d.Positioned, format, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Diagram-Request-ID", d.RequestID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	version := chi.URLParam(r, "version")
	if err := errors.ValidateAPIVersion(version); err != nil {
		s.writeError(w, r, err)
		return
	}
	version = errors.NormalizeAPIVersion(version)
	if err := s.runner.InvalidateVersion(r.Context(), version); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("invalidated", "version", version)
	w.WriteHeader(http.StatusNoContent)
}

// diagram runs the diagram request described by r. On failure the error has
// already been written.
func (s *Server) diagram(w http.ResponseWriter, r *http.Request) (*pipeline.Diagram, bool) {
	q := r.URL.Query()
	req, err := s.diagramRequest(chi.URLParam(r, "object"), q)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	d, err := s.runner.GetDiagram(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return d, true
}

func (s *Server) diagramRequest(root string, q url.Values) (pipeline.Request, error) {
	version, err := s.version(q)
	if err != nil {
		return pipeline.Request{}, err
	}
	opts := s.defaults
	if opts.Depth, err = queryInt(q, "depth", opts.Depth); err != nil {
		return pipeline.Request{}, err
	}
	if opts.IncludeStandard, err = queryBool(q, "standard", opts.IncludeStandard); err != nil {
		return pipeline.Request{}, err
	}
	if opts.IncludeCustom, err = queryBool(q, "custom", opts.IncludeCustom); err != nil {
		return pipeline.Request{}, err
	}
	if opts.MaxNodes, err = queryInt(q, "max_nodes", opts.MaxNodes); err != nil {
		return pipeline.Request{}, err
	}
	if opts.MaxEdges, err = queryInt(q, "max_edges", opts.MaxEdges); err != nil {
		return pipeline.Request{}, err
	}
	if q.Has("layout") {
		if opts.Layout, err = layout.ParseMode(q.Get("layout")); err != nil {
			return pipeline.Request{}, err
		}
	}
	refresh, err := queryBool(q, "refresh", false)
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{Root: root, Version: version, Options: opts, Refresh: refresh}, nil
}

func (s *Server) version(q url.Values) (string, error) {
	v := q.Get("version")
	if v == "" {
		v = s.apiVersion
	}
	if err := errors.ValidateAPIVersion(v); err != nil {
		return "", err
	}
	return errors.NormalizeAPIVersion(v), nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(err)
	switch {
	case stderrors.Is(err, integrations.ErrNotFound):
		status = http.StatusNotFound
		if code == "" {
			code = errors.ErrCodeEntityNotFound
		}
	case stderrors.Is(err, integrations.ErrUnauthorized):
		status = http.StatusUnauthorized
		if code == "" {
			code = errors.ErrCodeUnauthorized
		}
	case stderrors.Is(err, integrations.ErrNetwork) && code == "":
		status = http.StatusBadGateway
		code = errors.ErrCodeNetwork
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}

	body := errorBody{Error: code, Message: errors.UserMessage(err)}
	if entity, ok := pipeline.FailedEntity(err); ok {
		body.Entity = entity
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", code, "err", err)
	}
	writeJSON(w, status, body)
}

func fieldFilter(q url.Values) (schema.FieldFilter, error) {
	f := schema.FieldFilter{
		Search: q.Get("search"),
		Type:   q.Get("type"),
		Sort:   q.Get("sort"),
	}
	if err := f.ValidateSort(); err != nil {
		return f, errors.Wrap(errors.ErrCodeInvalidInput, err, "sort")
	}
	desc, err := queryBool(q, "desc", false)
	if err != nil {
		return f, err
	}
	f.Desc = desc
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryBool(q url.Values, name string, def bool) (bool, error) {
	if !q.Has(name) {
		return def, nil
	}
	v, err := strconv.ParseBool(q.Get(name))
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, q.Get(name))
	}
	return v, nil
}

func queryInt(q url.Values, name string, def int) (int, error) {
	if !q.Has(name) {
		return def, nil
	}
	v, err := strconv.Atoi(q.Get(name))
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", name, q.Get(name))
	}
	return v, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return strconv.Itoa(max(secs, 1))
}
