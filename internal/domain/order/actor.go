package order

// Role distinguishes customers from restaurant staff.
type Role int

const (
	RoleCustomer Role = iota
	RoleAdmin
)

// Actor is the identity an operation is performed on behalf of, as asserted
// by the upstream identity provider.
type Actor struct {
	Role     Role
	Customer Customer
}

// AdminActor returns an actor with admin privileges.
func AdminActor() Actor {
	return Actor{Role: RoleAdmin}
}

// CustomerActor returns an actor acting as customer c.
func CustomerActor(c Customer) Actor {
	return Actor{Role: RoleCustomer, Customer: c}
}

// IsAdmin reports whether the actor has admin privileges.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor may see o.
func (a Actor) Owns(o *Order) bool {
	if a.IsAdmin() {
		return true
	}
	key := a.Customer.Key()
	return key != "" && key == o.Customer.Key()
}
