package controllers

import (
	"net/http"

	"github.com/mraihanfauzii/marketplace-backend/api/responses"
	"github.com/mraihanfauzii/marketplace-backend/api/validators"
	checkoutsvc "github.com/mraihanfauzii/marketplace-backend/internal/checkout"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/logger"
)

type checkoutRequest struct {
	ShippingMethod string `json:"shipping_method" validate:"required"`
	ShippingCost   int64  `json:"shipping_cost" validate:"min=0"`
}

// Checkout converts the buyer's cart into one order per store.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.Role != enums.RoleBuyer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers can check out"))
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.Execute(r.Context(), actor.UserID, checkoutsvc.Input{
			ShippingMethod: body.ShippingMethod,
			ShippingCost:   body.ShippingCost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"orders": orders})
	}
}
