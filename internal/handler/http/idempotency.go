package http

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/idempotency"
)

// runIdempotent executes create at most once per Idempotency-Key and scope. Requests
// without the header run create directly. create writes its own response and returns the
// id of the new resource, or "" when it failed. replay renders an already created resource.
func runIdempotent(
	w http.ResponseWriter,
	r *http.Request,
	store idempotency.Store,
	scope string,
	replay func(id string),
	create func() string,
) {
	key := idempotency.Key(r)
	if key == "" || store == nil {
		create()
		return
	}
	ctx := r.Context()

	id, ok, err := store.Recall(ctx, scope, key)
	if err != nil {
		log.Error().Err(err).Str("scope", scope).Msg("Failed to read idempotency key")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if ok {
		log.Info().Str("scope", scope).Str("resource_id", id).Msg("Replaying idempotent request")
		replay(id)
		return
	}

	locked, err := store.TryLock(ctx, scope, key)
	if err != nil {
		log.Error().Err(err).Str("scope", scope).Msg("Failed to lock idempotency key")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !locked {
		respondWithError(w, http.StatusConflict, "a request with this Idempotency-Key is already in progress")
		return
	}

	id = create()
	if id == "" {
		if err := store.Release(ctx, scope, key); err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("Failed to release idempotency key")
		}
		return
	}
	if err := store.Remember(ctx, scope, key, id); err != nil {
		log.Warn().Err(err).Str("scope", scope).Str("resource_id", id).Msg("Failed to remember idempotency key")
	}
}
