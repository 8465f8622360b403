package models

// OrderStatus is the order lifecycle state, stored as its wire string.
type OrderStatus string

const (
	OrderNew             OrderStatus = "NEW"
	OrderWaiterEditing   OrderStatus = "WAITER_EDITING"
	OrderPreparing       OrderStatus = "PREPARING"
	OrderChangeRequested OrderStatus = "CHANGE_REQUESTED"
	OrderReady           OrderStatus = "READY"
	OrderDelivered       OrderStatus = "DELIVERED"
	OrderPaid            OrderStatus = "PAID"
)

var AllOrderStatuses = []OrderStatus{
	OrderNew,
	OrderWaiterEditing,
	OrderPreparing,
	OrderChangeRequested,
	OrderReady,
	OrderDelivered,
	OrderPaid,
}

// ParseOrderStatus validates a client-supplied status string. Values are
// case sensitive.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range AllOrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

var editableStatuses = map[OrderStatus]bool{
	OrderNew:           true,
	OrderPreparing:     true,
	OrderWaiterEditing: true,
}

// Editable reports whether the order's items may still be changed, directly
// or via a staged proposal.
func (s OrderStatus) Editable() bool {
	return editableStatuses[s]
}

// Deletable reports whether the order may be removed outright. Once the
// kitchen has started on it, it can only be edited through the change flow.
func (s OrderStatus) Deletable() bool {
	return s == OrderNew || s == OrderWaiterEditing
}

// CanEnterWaiterEditing guards the waiter takeover: only orders the kitchen
// has not finished may be taken over.
func (s OrderStatus) CanEnterWaiterEditing() bool {
	return s == OrderNew || s == OrderPreparing
}

// TableStatus is the table occupancy state.
type TableStatus string

const (
	TableFree     TableStatus = "FREE"
	TableOccupied TableStatus = "OCCUPIED"
)
