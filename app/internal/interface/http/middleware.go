package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type ctxDeviceKey struct{}

var errUnauthenticated = errors.New("unauthenticated")

type authDevice struct {
	DeviceID string
	TokenID  string
}

func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := a.tokenSvc.ParseToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), ctxDeviceKey{}, &authDevice{
			DeviceID: claims.DeviceID,
			TokenID:  claims.TokenID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getAuthDevice(ctx context.Context) *authDevice {
	if device, ok := ctx.Value(ctxDeviceKey{}).(*authDevice); ok {
		return device
	}
	return nil
}
