package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mraihanfauzii/marketplace-backend/api/middleware"
	"github.com/mraihanfauzii/marketplace-backend/internal/authz"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/pagination"
)

// actorFromRequest rebuilds the acting identity from the context the
// auth middleware seeded.
func actorFromRequest(r *http.Request) (authz.Actor, error) {
	rawUserID := middleware.UserIDFromContext(r.Context())
	if rawUserID == "" {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return authz.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return authz.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}

	actor := authz.Actor{UserID: userID, Role: role}
	if rawStoreID := middleware.StoreIDFromContext(r.Context()); rawStoreID != "" {
		storeID, err := uuid.Parse(rawStoreID)
		if err != nil {
			return authz.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid store id")
		}
		actor.StoreID = &storeID
	}
	return actor, nil
}

func parseIDParam(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func paginationFromQuery(r *http.Request) pagination.Params {
	params := pagination.Params{
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			params.Limit = limit
		}
	}
	return params
}
