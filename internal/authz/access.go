package authz

import (
	"github.com/google/uuid"

	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
)

// CanViewOrder reports whether the actor may read the order: the buyer who
// placed it, the owner of the fulfilling store, or an admin.
func CanViewOrder(actor Actor, order *models.Order) bool {
	if order == nil {
		return false
	}
	if actor.Role == enums.RoleAdmin {
		return true
	}
	if order.UserID == actor.UserID {
		return true
	}
	return actor.Role == enums.RoleSeller && actor.OwnsStore(order.StoreID)
}

// CanMutateProduct reports whether the actor may create or modify products
// belonging to the given store: the owning seller or an admin.
func CanMutateProduct(actor Actor, storeID uuid.UUID) bool {
	if actor.Role == enums.RoleAdmin {
		return true
	}
	return actor.Role == enums.RoleSeller && actor.OwnsStore(storeID)
}
