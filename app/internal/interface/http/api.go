package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	domcart "example.com/gomarketplace/app/internal/domain/cart"
	"example.com/gomarketplace/app/internal/infra/security"
)

// CartStore is the part of the cart state container the HTTP layer drives.
type CartStore interface {
	Products() domcart.Collection
	AddToCart(item domcart.Descriptor) (domcart.Collection, error)
	Increment(id string) domcart.Collection
	Decrement(id string) domcart.Collection
	DeleteCart(ctx context.Context) error
}

type TokenService interface {
	ParseToken(token string) (*security.Claims, error)
}

type API struct {
	cart      CartStore
	tokenSvc  TokenService
	validator *validator.Validate
	log       *slog.Logger
}

type Dependencies struct {
	CartStore CartStore
	// TokenService is optional; without it the API is open.
	TokenService TokenService
	Logger       *slog.Logger
}

func NewAPI(deps Dependencies) *API {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &API{
		cart:      deps.CartStore,
		tokenSvc:  deps.TokenService,
		validator: validator.New(),
		log:       log,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if a.tokenSvc != nil {
			r.Use(a.authMiddleware)
		}

		r.Get("/cart", a.handleGetCart)
		r.Delete("/cart", a.handleDeleteCart)
		r.Post("/cart/items", a.handleAddCartItem)
		r.Post("/cart/items/{id}/increment", a.handleIncrementCartItem)
		r.Post("/cart/items/{id}/decrement", a.handleDecrementCartItem)
	})

	return r
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseIDParam(r *http.Request, key string) (string, error) {
	return url.PathUnescape(chi.URLParam(r, key))
}

type cartEntryResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

type cartResponse struct {
	Products       []cartEntryResponse `json:"products"`
	TotalItemCount int64               `json:"total_item_count"`
	TotalPrice     float64             `json:"total_price"`
}

func mapCart(c domcart.Collection) cartResponse {
	entries := c.Entries()
	out := cartResponse{
		Products:       make([]cartEntryResponse, 0, len(entries)),
		TotalItemCount: c.TotalItemCount(),
		TotalPrice:     c.TotalPrice(),
	}
	for _, e := range entries {
		out.Products = append(out.Products, cartEntryResponse{
			ID:       e.ID,
			Title:    e.Title,
			ImageURL: e.ImageRef,
			Price:    e.UnitPrice,
			Quantity: e.Quantity,
		})
	}
	return out
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcart.ErrInvalidDescriptor):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domcart.ErrClearFailed):
		// memory is already reset; only the durable copy is stale
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   err.Error(),
			Details: mapCart(domcart.NewCollection()),
		})
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
