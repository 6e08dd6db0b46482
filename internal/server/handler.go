package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pybins/internal/app"
	"pybins/internal/shared"
	"pybins/internal/types"
)

// BuildService is the part of app.Service the HTTP surface uses.
type BuildService interface {
	Build(ctx context.Context, req app.BuildRequest) (types.BuildRecord, error)
	GetBuild(ctx context.Context, buildID string) (types.BuildRecord, error)
	ListBuilds(ctx context.Context) (app.BuildList, error)
	Resolve(ctx context.Context, req app.ResolveRequest) (types.ResolvedSource, error)
	Installer(ctx context.Context, req app.InstallerRequest) (app.InstallerResult, error)
	ArtifactPath(ctx context.Context, buildID string, filename string) (string, error)
}

type Handler struct {
	svc BuildService
	mux *http.ServeMux
}

func NewHandler(svc BuildService) *Handler {
	mux := http.NewServeMux()
	h := &Handler{svc: svc, mux: mux}

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /health", h.GetHealth)

	mux.HandleFunc("POST /builds", h.CreateBuild)
	mux.HandleFunc("GET /builds", h.ListBuilds)
	mux.HandleFunc("GET /builds/{id}", h.GetBuild)

	mux.HandleFunc("GET /download/{id}/{file}", h.Download)
	mux.HandleFunc("GET /meta/{package}", h.GetMeta)
	mux.HandleFunc("GET /{tool}", h.GetInstaller)

	return h
}

// ServeHTTP attaches a request-scoped logger before routing.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	logger := log.Logger.With().
		Str("request_id", uuid.NewString()).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Logger()
	r = r.WithContext(logger.WithContext(r.Context()))
	h.mux.ServeHTTP(w, r)
	logger.Debug().Dur("elapsed", time.Since(started)).Msg("request served")
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Service   string            `json:"service"`
		Endpoints map[string]string `json:"endpoints"`
	}
	writeJSON(w, r, http.StatusOK, response{
		Service: "pybins",
		Endpoints: map[string]string{
			"GET /health":               "Health check",
			"POST /builds":              "Build a wheel or binary",
			"GET /builds":               "List builds",
			"GET /builds/{id}":          "Get a build",
			"GET /download/{id}/{file}": "Download a build artifact or log",
			"GET /meta/{package}":       "Get package metadata",
			"GET /{tool}":               "Get installer script for tool",
			"GET /{tool}@{version}":     "Get installer script for specific version",
		},
	})
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, r, http.StatusOK, response{Status: "ok"})
}

func (h *Handler) CreateBuild(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Package   string `json:"package"`
		Version   string `json:"version"`
		BuildType string `json:"build_type"`
	}

	var req request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	if dec.More() {
		writeError(w, r, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid request body: multiple top-level values"))
		return
	}

	// A client disconnect must not kill the build tool mid-run.
	record, err := h.svc.Build(context.WithoutCancel(r.Context()), app.BuildRequest{
		Package: req.Package,
		Version: req.Version,
		Kind:    req.BuildType,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, record)
}

func (h *Handler) ListBuilds(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListBuilds(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list.Builds == nil {
		list.Builds = []types.BuildRecord{}
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (h *Handler) GetBuild(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.GetBuild(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, record)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	path, err := h.svc.ArtifactPath(r.Context(), r.PathValue("id"), r.PathValue("file"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.ServeFile(w, r, path)
}

func (h *Handler) GetMeta(w http.ResponseWriter, r *http.Request) {
	source, err := h.svc.Resolve(r.Context(), app.ResolveRequest{Package: r.PathValue("package")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, source)
}

func (h *Handler) GetInstaller(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Installer(r.Context(), app.ParseToolRequest(r.PathValue("tool")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/x-sh")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.Script))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	type response struct {
		Error string `json:"error"`
	}
	status := statusForError(err)
	event := log.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = log.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, r, status, response{Error: shared.ErrorMessage(err)})
}

func statusForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return http.StatusBadRequest
	case errbuilder.CodeNotFound:
		return http.StatusNotFound
	case errbuilder.CodeAlreadyExists:
		return http.StatusConflict
	case errbuilder.CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case errbuilder.CodePermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
