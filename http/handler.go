package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"statichost"
)

// maxFormMemory bounds how much of a multipart upload stays in memory
// before net/http spills parts to temp files.
const maxFormMemory = 32 << 20

type Service interface {
	Create(ctx context.Context, in statichost.CreateSiteInput) (statichost.Site, error)
	Update(ctx context.Context, id uuid.UUID, in statichost.CreateSiteInput) (statichost.Site, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (statichost.SiteDetail, error)
	List(ctx context.Context, query statichost.ListQuery) (statichost.SiteList, error)
	Resolve(ctx context.Context, host, subpath string) (statichost.File, io.ReadCloser, error)
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	CORS CORSConfig
}

// Handler provides HTTP handlers for site publication and resolution.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with the management routes under
// /sites and the serving route under /s.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Route("/sites", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{siteID}", h.handleGet)
		r.Put("/{siteID}", h.handleUpdate)
		r.Delete("/{siteID}", h.handleDelete)
	})

	r.Get("/s/*", h.handleServe)
	r.Head("/s/*", h.handleServe)

	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSiteForm(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	site, err := h.service.Create(r.Context(), in)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteMessage(w, http.StatusOK, fmt.Sprintf(
		"You can now access your site at: https://%s with site id: %s", site.Host, site.ID))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := siteID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	in, err := decodeSiteForm(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if _, err := h.service.Update(r.Context(), id, in); err != nil {
		HandleError(w, err)
		return
	}

	WriteMessage(w, http.StatusOK, "Site updated successfully")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := siteID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}

	WriteMessage(w, http.StatusOK, "Site deleted successfully")
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := siteID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = max(1, min(1000, parsed))
		}
	}

	query := statichost.ListQuery{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}

	result, err := h.service.List(r.Context(), query)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

// handleServe resolves /s/{host}/{path...} to a stored file and streams
// it. HEAD answers the same headers with an empty body.
func (h *Handler) handleServe(w http.ResponseWriter, r *http.Request) {
	host, subpath := statichost.SplitHostPath(chi.URLParam(r, "*"))
	if host == "" {
		writeNotFoundPage(w)
		return
	}

	file, content, err := h.service.Resolve(r.Context(), host, subpath)
	if err != nil {
		if errors.Is(err, statichost.ErrNotFound) {
			writeNotFoundPage(w)
		} else {
			slog.Error("serve error", "host", host, "path", subpath, "error", err)
			WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, content); err != nil {
		slog.Error("failed to stream file", "host", host, "path", subpath, "error", err)
	}
}

func siteID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "siteID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid site id", statichost.ErrInvalidInput)
	}
	return id, nil
}

// decodeSiteForm extracts a publication request from a multipart form
// with fields domain, suffix, site_type, index_file, and repeated file
// parts. The opened parts are cleaned up when the server finishes the
// request.
func decodeSiteForm(r *http.Request) (statichost.CreateSiteInput, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return statichost.CreateSiteInput{}, fmt.Errorf("%w: invalid multipart form", statichost.ErrInvalidInput)
	}

	files, err := openFormFiles(r.MultipartForm.File["file"])
	if err != nil {
		return statichost.CreateSiteInput{}, err
	}

	return statichost.CreateSiteInput{
		Domain:    r.FormValue("domain"),
		Suffix:    r.FormValue("suffix"),
		SiteType:  r.FormValue("site_type"),
		IndexFile: r.FormValue("index_file"),
		Files:     files,
	}, nil
}

func openFormFiles(headers []*multipart.FileHeader) ([]statichost.UploadFile, error) {
	files := make([]statichost.UploadFile, 0, len(headers))

	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: unreadable file part %q", statichost.ErrInvalidInput, hdr.Filename)
		}

		files = append(files, statichost.UploadFile{
			Name:        hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Content:     f,
		})
	}

	return files, nil
}
