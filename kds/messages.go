package kds

// Group names. Kitchen displays share one group; every table display joins
// the group derived from its table code.
const KitchenGroup = "kitchen"

func TableGroup(code string) string {
	return "table_" + code
}

// Message kinds
const (
	EventNewOrder     = "NEW_ORDER"
	EventStatusUpdate = "STATUS_UPDATE"
	EventWaiterCall   = "WAITER_CALL"
	EventTableClosed  = "TABLE_CLOSED"
	EventWaiterComing = "WAITER_COMING"
)

type Message struct {
	Type      string      `json:"type"`
	Order     interface{} `json:"order,omitempty"`
	TableCode string      `json:"table_code,omitempty"`
	Status    string      `json:"status,omitempty"`
}

func NewOrderMessage(order interface{}) Message {
	return Message{Type: EventNewOrder, Order: order}
}

func StatusUpdateMessage(order interface{}) Message {
	return Message{Type: EventStatusUpdate, Order: order}
}

// WaiterCallMessage alerts the kitchen group; status is "ON" when a table
// calls for assistance and "OFF" once staff marks it attended.
func WaiterCallMessage(tableCode, status string) Message {
	return Message{Type: EventWaiterCall, TableCode: tableCode, Status: status}
}

func TableClosedMessage(tableCode string) Message {
	return Message{Type: EventTableClosed, TableCode: tableCode}
}

func WaiterComingMessage(tableCode string) Message {
	return Message{Type: EventWaiterComing, TableCode: tableCode}
}

// Publisher is the narrow surface the services depend on. Delivery is
// best-effort: implementations log failures and keep going, and a publish
// with zero subscribers is a silent no-op.
type Publisher interface {
	Publish(group string, msg Message) error
}
