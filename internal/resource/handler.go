package resource

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/auth"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/pkg/httputil"
)

const (
	maxUploadSize   = 50 << 20 // 50 MiB
	downloadExpiry  = time.Minute * 15
	uploadFormField = "file"
)

type Handler struct {
	store     Store
	objects   ObjectStore
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(store Store, objects ObjectStore, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{store, objects, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", httputil.Handler(h.HandleListResources, h.log))
	r.Post("/", httputil.Handler(h.HandleUploadResource, h.log))
	r.Get("/{resourceID}/url", httputil.Handler(h.HandleResourceURL, h.log))
	r.Delete("/{resourceID}", httputil.Handler(h.HandleDeleteResource, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleUploadResource accepts a multipart upload and files it under a level
func (h *Handler) HandleUploadResource(w http.ResponseWriter, r *http.Request) error {
	uploaderID := auth.GetUserID(r.Context())
	if uploaderID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return httputil.BadRequest("File is too large or the form is malformed")
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		return httputil.BadRequest("Missing file field")
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	level := strings.TrimSpace(r.FormValue("level"))
	if level == "" {
		return httputil.BadRequest("Level is required")
	}

	res := &Resource{
		ID:         uuid.New(),
		Name:       name,
		Level:      level,
		UploadedBy: uploaderID,
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	objectKey, err := h.objects.Upload(ctx, res.ID, header.Filename, file, header.Size)
	if err != nil {
		h.log.Error("resource upload failed", "resource_id", res.ID, "error", err)
		return httputil.Internal(err)
	}
	res.S3Key = objectKey

	if err := h.store.CreateResource(ctx, res); err != nil {
		// best effort: don't leave an orphaned object behind
		if delErr := h.objects.Delete(ctx, objectKey); delErr != nil {
			h.log.Warn("failed to clean up orphaned object", "object_key", objectKey, "error", delErr)
		}
		return httputil.Internal(err)
	}

	h.log.Info("resource uploaded",
		"resource_id", res.ID,
		"level", res.Level,
		"uploaded_by", uploaderID)

	return httputil.RespondJSON(w, http.StatusCreated, res)
}

// HandleListResources returns resources, optionally filtered by ?level=
func (h *Handler) HandleListResources(w http.ResponseWriter, r *http.Request) error {
	level := strings.TrimSpace(r.URL.Query().Get("level"))

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	resources, err := h.store.ListResources(ctx, level)
	if err != nil {
		return httputil.Internal(err)
	}

	list := make([]Resource, len(resources))
	for i, res := range resources {
		list[i] = *res
	}

	return httputil.RespondJSON(w, http.StatusOK, ListResourcesResponse{
		Resources: list,
		Count:     len(list),
	})
}

// HandleResourceURL hands out a short-lived download link
func (h *Handler) HandleResourceURL(w http.ResponseWriter, r *http.Request) error {
	resourceID, err := httputil.ParseUUID(r, "resourceID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	res, err := h.store.GetResourceByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return httputil.NotFound("Resource not found")
		}
		return httputil.Internal(err)
	}

	url, err := h.objects.PresignedURL(ctx, res.S3Key, downloadExpiry)
	if err != nil {
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, ResourceURLResponse{
		URL:       url,
		ExpiresIn: int(downloadExpiry.Seconds()),
	})
}

// HandleDeleteResource removes a resource; only the uploader may do this
func (h *Handler) HandleDeleteResource(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	resourceID, err := httputil.ParseUUID(r, "resourceID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	res, err := h.store.GetResourceByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return httputil.NotFound("Resource not found")
		}
		return httputil.Internal(err)
	}

	if res.UploadedBy != userID {
		return httputil.Forbidden("Only the uploader can delete a resource")
	}

	if err := h.store.DeleteResource(ctx, resourceID); err != nil {
		return httputil.Internal(err)
	}

	if err := h.objects.Delete(ctx, res.S3Key); err != nil {
		h.log.Warn("failed to delete object for removed resource",
			"resource_id", resourceID,
			"object_key", res.S3Key,
			"error", err)
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Resource deleted successfully",
	})
}
