// Package permission decides whether an authenticated actor may perform an
// operation on a resource. All checks default to deny: a nil actor, an
// unknown resource, or a lookup failure yields false, never an error.
package permission

import (
	"context"

	"booze-courier/internal/model"
	"booze-courier/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Resource identifies the kind of entity an operation targets.
type Resource string

const (
	ResourceOrder         Resource = "order"
	ResourceDelivery      Resource = "delivery"
	ResourcePayment       Resource = "payment"
	ResourceDriverProfile Resource = "driver_profile"
	ResourceCatalog       Resource = "catalog"
)

// Operation identifies what the actor wants to do with the resource.
type Operation string

const (
	OpRead         Operation = "read"
	OpWrite        Operation = "write"
	OpCancel       Operation = "cancel"
	OpUpdateStatus Operation = "update_status"
	OpRefund       Operation = "refund"
)

// Identity carries the caller's authentication context. Principal is the
// materialized user when the transport layer already resolved it; Email is
// the fallback lookup key.
type Identity struct {
	Principal *model.User
	Email     string
}

// Guard evaluates the capability matrix.
type Guard struct {
	users      repository.UserRepository
	orders     repository.OrderRepository
	deliveries repository.DeliveryRepository
	logger     zerolog.Logger
}

// NewGuard creates a capability guard backed by the given repositories.
func NewGuard(
	users repository.UserRepository,
	orders repository.OrderRepository,
	deliveries repository.DeliveryRepository,
	logger zerolog.Logger,
) *Guard {
	return &Guard{
		users:      users,
		orders:     orders,
		deliveries: deliveries,
		logger:     logger.With().Str("component", "permission").Logger(),
	}
}

// rule decides whether an actor holding the granting role may touch the
// resource identified by id.
type rule func(ctx context.Context, g *Guard, actor *model.User, id uuid.UUID) bool

func allowAll(context.Context, *Guard, *model.User, uuid.UUID) bool { return true }

func ruleOwnsOrder(ctx context.Context, g *Guard, actor *model.User, id uuid.UUID) bool {
	return g.ownsOrder(ctx, actor, id)
}

func ruleOwnOrderDelivery(ctx context.Context, g *Guard, actor *model.User, id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	delivery, err := g.deliveries.GetByID(ctx, id)
	if err != nil || delivery == nil {
		return false
	}
	return g.ownsOrder(ctx, actor, delivery.OrderID)
}

func ruleMerchantOrder(ctx context.Context, g *Guard, actor *model.User, id uuid.UUID) bool {
	return g.merchantCanAccessOrder(ctx, actor, id)
}

func ruleDriverOrder(ctx context.Context, g *Guard, actor *model.User, id uuid.UUID) bool {
	return g.driverCanAccessOrder(ctx, actor, id)
}

func ruleDriverDelivery(ctx context.Context, g *Guard, actor *model.User, id uuid.UUID) bool {
	return g.driverCanAccessDelivery(ctx, actor, id)
}

func ruleOwnDriverProfile(_ context.Context, _ *Guard, actor *model.User, id uuid.UUID) bool {
	if id == uuid.Nil || !actor.HasRole(model.RoleDriver) {
		return false
	}
	return actor.DriverID != nil && *actor.DriverID == id
}

func ruleOwnsMerchant(_ context.Context, _ *Guard, actor *model.User, id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	return actor.OwnsMerchant(id)
}

// capabilities is the Role x Resource x Operation matrix. Any combination
// not listed here is denied. Payment rules are keyed by the owning order's id.
var capabilities = map[model.Role]map[Resource]map[Operation]rule{
	model.RoleAdmin: {
		ResourceOrder:         {OpRead: allowAll, OpWrite: allowAll, OpCancel: allowAll, OpUpdateStatus: allowAll},
		ResourceDelivery:      {OpRead: allowAll, OpWrite: allowAll, OpUpdateStatus: allowAll},
		ResourcePayment:       {OpRead: allowAll, OpRefund: allowAll},
		ResourceDriverProfile: {OpRead: allowAll, OpWrite: allowAll},
		ResourceCatalog:       {OpRead: allowAll, OpWrite: allowAll},
	},
	model.RoleCustomer: {
		ResourceOrder:    {OpRead: ruleOwnsOrder, OpCancel: ruleOwnsOrder},
		ResourceDelivery: {OpRead: ruleOwnOrderDelivery},
		ResourcePayment:  {OpRead: ruleOwnsOrder},
		ResourceCatalog:  {OpRead: allowAll},
	},
	model.RoleMerchantAdmin: {
		ResourceOrder:   {OpRead: ruleMerchantOrder, OpUpdateStatus: ruleMerchantOrder},
		ResourceCatalog: {OpRead: ruleOwnsMerchant, OpWrite: ruleOwnsMerchant},
	},
	model.RoleDriver: {
		ResourceOrder:         {OpRead: ruleDriverOrder, OpUpdateStatus: ruleDriverOrder},
		ResourceDelivery:      {OpRead: ruleDriverDelivery, OpWrite: ruleDriverDelivery, OpUpdateStatus: ruleDriverDelivery},
		ResourceDriverProfile: {OpRead: ruleOwnDriverProfile, OpWrite: ruleOwnDriverProfile},
	},
}

// CanAccess reports whether the identity may perform op on the resource
// identified by id. Each of the actor's roles is checked against the matrix;
// any grant suffices.
func (g *Guard) CanAccess(ctx context.Context, ident Identity, res Resource, op Operation, id uuid.UUID) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil {
		return false
	}

	for _, role := range actor.Roles {
		ops, ok := capabilities[role][res]
		if !ok {
			continue
		}
		check, ok := ops[op]
		if !ok {
			continue
		}
		if check(ctx, g, actor, id) {
			return true
		}
	}

	g.logger.Debug().
		Str("user_id", actor.ID.String()).
		Str("resource", string(res)).
		Str("operation", string(op)).
		Msg("access denied")
	return false
}

// Resolve materializes the acting user: the attached principal when present,
// otherwise a lookup by unique email. Returns nil when neither resolves.
func (g *Guard) Resolve(ctx context.Context, ident Identity) *model.User {
	if ident.Principal != nil {
		return ident.Principal
	}
	if ident.Email == "" {
		return nil
	}
	user, err := g.users.GetByEmail(ctx, ident.Email)
	if err != nil {
		g.logger.Warn().Err(err).Str("email", ident.Email).Msg("identity lookup failed")
		return nil
	}
	return user
}

// IsSelf reports whether the identity is the user with the given id.
func (g *Guard) IsSelf(ctx context.Context, ident Identity, userID uuid.UUID) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil || userID == uuid.Nil {
		return false
	}
	return actor.ID == userID
}

// OwnsMerchant reports whether the identity administers the given merchant.
func (g *Guard) OwnsMerchant(ctx context.Context, ident Identity, merchantID uuid.UUID) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil || merchantID == uuid.Nil {
		return false
	}
	return actor.OwnsMerchant(merchantID)
}

// HasRole reports whether the identity holds the given role.
func (g *Guard) HasRole(ctx context.Context, ident Identity, role model.Role) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil || role == "" {
		return false
	}
	return actor.HasRole(role)
}

// IsDriverProfile reports whether the identity is a driver owning the given
// driver profile.
func (g *Guard) IsDriverProfile(ctx context.Context, ident Identity, driverID uuid.UUID) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil || driverID == uuid.Nil {
		return false
	}
	return ruleOwnDriverProfile(ctx, g, actor, driverID)
}

// OwnsOrder reports whether the identity is the customer of the given order.
func (g *Guard) OwnsOrder(ctx context.Context, ident Identity, orderID uuid.UUID) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil {
		return false
	}
	return g.ownsOrder(ctx, actor, orderID)
}

// MerchantCanAccessOrder reports whether the identity administers the
// merchant that received the given order.
func (g *Guard) MerchantCanAccessOrder(ctx context.Context, ident Identity, orderID uuid.UUID) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil {
		return false
	}
	return g.merchantCanAccessOrder(ctx, actor, orderID)
}

// DriverCanAccessDelivery reports whether the identity is the driver
// assigned to the given delivery.
func (g *Guard) DriverCanAccessDelivery(ctx context.Context, ident Identity, deliveryID uuid.UUID) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil {
		return false
	}
	return g.driverCanAccessDelivery(ctx, actor, deliveryID)
}

// DriverCanAccessOrder reports whether the identity is the driver assigned
// to the given order.
func (g *Guard) DriverCanAccessOrder(ctx context.Context, ident Identity, orderID uuid.UUID) bool {
	actor := g.Resolve(ctx, ident)
	if actor == nil {
		return false
	}
	return g.driverCanAccessOrder(ctx, actor, orderID)
}

func (g *Guard) ownsOrder(ctx context.Context, actor *model.User, orderID uuid.UUID) bool {
	if orderID == uuid.Nil {
		return false
	}
	order, err := g.orders.GetByID(ctx, orderID)
	if err != nil || order == nil {
		return false
	}
	return order.CustomerID == actor.ID
}

func (g *Guard) merchantCanAccessOrder(ctx context.Context, actor *model.User, orderID uuid.UUID) bool {
	if orderID == uuid.Nil || !actor.HasRole(model.RoleMerchantAdmin) {
		return false
	}
	order, err := g.orders.GetByID(ctx, orderID)
	if err != nil || order == nil {
		return false
	}
	return actor.OwnsMerchant(order.MerchantID)
}

func (g *Guard) driverCanAccessDelivery(ctx context.Context, actor *model.User, deliveryID uuid.UUID) bool {
	if deliveryID == uuid.Nil || !actor.HasRole(model.RoleDriver) || actor.DriverID == nil {
		return false
	}
	delivery, err := g.deliveries.GetByID(ctx, deliveryID)
	if err != nil || delivery == nil || delivery.DriverID == nil {
		return false
	}
	return *delivery.DriverID == *actor.DriverID
}

func (g *Guard) driverCanAccessOrder(ctx context.Context, actor *model.User, orderID uuid.UUID) bool {
	if orderID == uuid.Nil || !actor.HasRole(model.RoleDriver) || actor.DriverID == nil {
		return false
	}
	order, err := g.orders.GetByID(ctx, orderID)
	if err != nil || order == nil || order.DriverID == nil {
		return false
	}
	return *order.DriverID == *actor.DriverID
}
