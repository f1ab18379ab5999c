package http

import (
	"log/slog"
	"net/http"

	domcart "example.com/gomarketplace/app/internal/domain/cart"
)

type addCartItemRequest struct {
	ID       string   `json:"id" validate:"required"`
	Title    string   `json:"title"`
	ImageURL string   `json:"image_url"`
	Price    *float64 `json:"price" validate:"required,gte=0"`
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapCart(a.cart.Products()))
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	products, err := a.cart.AddToCart(domcart.Descriptor{
		ID:        req.ID,
		Title:     req.Title,
		ImageRef:  req.ImageURL,
		UnitPrice: *req.Price,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	a.logMutation(r, "add", req.ID)
	writeJSON(w, http.StatusCreated, mapCart(products))
}

func (a *API) handleIncrementCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	products := a.cart.Increment(id)
	a.logMutation(r, "increment", id)
	writeJSON(w, http.StatusOK, mapCart(products))
}

func (a *API) handleDecrementCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	products := a.cart.Decrement(id)
	a.logMutation(r, "decrement", id)
	writeJSON(w, http.StatusOK, mapCart(products))
}

func (a *API) handleDeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := a.cart.DeleteCart(r.Context()); err != nil {
		handleDomainError(w, err)
		return
	}

	a.logMutation(r, "delete", "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) logMutation(r *http.Request, op, id string) {
	attrs := []any{slog.String("op", op)}
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}
	if device := getAuthDevice(r.Context()); device != nil {
		attrs = append(attrs, slog.String("device", device.DeviceID))
	}
	a.log.Debug("cart mutation", attrs...)
}
