package controllers

import (
	"net/http"

	"github.com/retechci/retechci-backend/api/middleware"
	"github.com/retechci/retechci-backend/internal/access"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
)

// requireActor returns the member seeded by the auth middleware.
func requireActor(r *http.Request) (access.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return access.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

func unavailable(name string) error {
	return pkgerrors.Newf(pkgerrors.CodeInternal, "%s service unavailable", name)
}
