package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/apierror"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/export"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/service"
)

// CatalogService is implemented by *service.Catalog.
type CatalogService interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (string, error)
	Update(ctx context.Context, id string, p catalog.Product) error
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, format export.Format) (service.ExportResult, error)
}

type Handler struct {
	svc CatalogService
}

func NewHandler(svc CatalogService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	render.JSON(w, r, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	render.JSON(w, r, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := render.DecodeJSON(r.Body, &p); err != nil {
		apierror.Write(w, r, apierror.InvalidRequestWithError(err))
		return
	}

	id, err := h.svc.Create(r.Context(), p)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"id": id})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := render.DecodeJSON(r.Body, &p); err != nil {
		apierror.Write(w, r, apierror.InvalidRequestWithError(err))
		return
	}

	if err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), p); err != nil {
		apierror.Write(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"ok": true})
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		apierror.Write(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"ok": true})
}

// ExportProducts streams the whole catalog as a file download.
func (h *Handler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		apierror.Write(w, r, apierror.InvalidParameter("format", err))
		return
	}

	res, err := h.svc.Export(r.Context(), format)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
}
