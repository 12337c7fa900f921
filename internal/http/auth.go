package http

import (
	"context"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"paygate/internal/models"
	"paygate/internal/services"
)

type ctxKey int

const merchantKey ctxKey = iota

// requireMerchant authenticates X-Api-Key/X-Api-Secret headers against the
// merchant table. Every failure mode returns the same 401 body so the
// response does not reveal whether the key exists.
func requireMerchant(st services.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-Api-Key")
			apiSecret := r.Header.Get("X-Api-Secret")
			if apiKey == "" || apiSecret == "" {
				writeServiceError(w, services.ErrAuthentication)
				return
			}

			merchant, err := st.GetMerchantByAPIKey(r.Context(), apiKey)
			if err != nil || !merchant.IsActive {
				writeServiceError(w, services.ErrAuthentication)
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(merchant.APISecretHash), []byte(apiSecret)) != nil {
				writeServiceError(w, services.ErrAuthentication)
				return
			}

			ctx := context.WithValue(r.Context(), merchantKey, merchant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func merchantFrom(r *http.Request) *models.Merchant {
	m, _ := r.Context().Value(merchantKey).(*models.Merchant)
	return m
}
