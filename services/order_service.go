package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"comanda/kds"
	"comanda/models"
	"comanda/utils"
)

// OrderService owns the order lifecycle. Every mutation runs inside one
// transaction; the broadcast happens strictly after commit and its failure
// never affects the caller.
type OrderService struct {
	DB  *gorm.DB
	Bus kds.Publisher
}

func NewOrderService(db *gorm.DB, bus kds.Publisher) *OrderService {
	return &OrderService{DB: db, Bus: bus}
}

// ItemInput is one requested item. Quantity is always one; repeated products
// arrive as repeated entries.
type ItemInput struct {
	ProductName     string          `json:"product_name" binding:"required"`
	Notes           string          `json:"notes"`
	SelectedOptions json.RawMessage `json:"selected_options"`
}

type CreateOrderInput struct {
	TableID   uint        `json:"table"`
	TableCode string      `json:"table_code"`
	Items     []ItemInput `json:"items"`
}

type UpdateOrderInput struct {
	Items []ItemInput `json:"items"`
	// PreviousStatusOnEdit is reported by the client because a waiter edit
	// moves the order into WAITER_EDITING first; the branch below depends on
	// where the edit started, not where it is now.
	PreviousStatusOnEdit string `json:"previous_status_on_edit"`
}

// proposedPayload is what gets staged in Order.ProposedChanges while the
// kitchen decides on a mid-preparation edit.
type proposedPayload struct {
	Items []ItemInput `json:"items"`
}

// CreateOrder resolves the table (by id or code), snapshots product prices
// into items, occupies the table, and announces the order to the kitchen.
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, utils.NewValidationError("items", "must not be empty")
	}

	var orderID uint
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		table, err := resolveTable(tx, input.TableID, input.TableCode)
		if err != nil {
			return err
		}

		if err := occupyTable(tx, table); err != nil {
			return err
		}

		order := models.Order{
			TableID: table.ID,
			Status:  models.OrderNew,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		items, err := buildItems(tx, order.ID, input.Items)
		if err != nil {
			return err
		}
		for i := range items {
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}

		order.Items = items
		order.RecomputeTotal()
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("total_price", order.TotalPrice).Error; err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	s.broadcast(kds.KitchenGroup, kds.NewOrderMessage(order))
	return order, nil
}

// ListOrders returns orders newest first. statusFilter is a comma-separated
// list matched with OR semantics; unknown values are rejected.
func (s *OrderService) ListOrders(statusFilter string) ([]models.Order, error) {
	q := s.DB.Preload("Items").Preload("Table").Order("created_at desc")

	if statusFilter != "" {
		var statuses []models.OrderStatus
		for _, part := range strings.Split(statusFilter, ",") {
			st, ok := models.ParseOrderStatus(strings.TrimSpace(part))
			if !ok {
				return nil, utils.NewValidationError("status", fmt.Sprintf("invalid status %q", part))
			}
			statuses = append(statuses, st)
		}
		q = q.Where("status IN ?", statuses)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.Preload("Items").Preload("Table").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("order")
		}
		return nil, err
	}
	return &order, nil
}

// UpdateOrder applies a waiter or customer edit. An edit that started while
// the kitchen was already preparing does not touch the items; it is staged
// in proposed_changes and the order moves to CHANGE_REQUESTED for the
// kitchen to accept or reject.
func (s *OrderService) UpdateOrder(id uint, input UpdateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, utils.NewValidationError("items", "must not be empty")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		if !order.Status.Editable() {
			return utils.NewIllegalTransitionError(
				fmt.Sprintf("order in status %s cannot be edited", order.Status))
		}

		editStart := order.Status
		if input.PreviousStatusOnEdit != "" {
			if st, ok := models.ParseOrderStatus(input.PreviousStatusOnEdit); ok {
				editStart = st
			}
		}

		if editStart == models.OrderPreparing {
			payload, err := json.Marshal(proposedPayload{Items: input.Items})
			if err != nil {
				return err
			}
			return tx.Model(order).Updates(map[string]interface{}{
				"status":           models.OrderChangeRequested,
				"proposed_changes": datatypes.JSON(payload),
			}).Error
		}

		if err := replaceItems(tx, order, input.Items); err != nil {
			return err
		}
		return tx.Model(order).Updates(map[string]interface{}{
			"status":           models.OrderNew,
			"proposed_changes": nil,
			"total_price":      order.TotalPrice,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndAnnounce(id)
}

// DeleteOrder removes an order that the kitchen has not started on.
func (s *OrderService) DeleteOrder(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		if !order.Status.Deletable() {
			return utils.NewIllegalTransitionError(
				fmt.Sprintf("order in status %s cannot be deleted", order.Status))
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(order).Error
	})
}

// SetStatus moves an order to an arbitrary valid status. Only the waiter
// takeover has a precondition; first entry into PREPARING and READY stamps
// the matching timestamp exactly once.
func (s *OrderService) SetStatus(id uint, target string) (*models.Order, error) {
	status, ok := models.ParseOrderStatus(target)
	if !ok {
		return nil, utils.NewBadRequestError(fmt.Sprintf("invalid status %q", target))
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		if status == models.OrderWaiterEditing && !order.Status.CanEnterWaiterEditing() {
			return utils.NewIllegalTransitionError(
				fmt.Sprintf("cannot start waiter edit from status %s", order.Status))
		}

		updates := map[string]interface{}{"status": status}
		now := time.Now()
		if status == models.OrderPreparing && order.PreparingAt == nil {
			updates["preparing_at"] = now
		}
		if status == models.OrderReady && order.ReadyAt == nil {
			updates["ready_at"] = now
		}

		return tx.Model(order).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndAnnounce(id)
}

// MarkDelivered is the only path that stamps delivered_at.
func (s *OrderService) MarkDelivered(id uint) (*models.Order, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		if order.Status != models.OrderReady {
			return utils.NewBadRequestError(
				fmt.Sprintf("order in status %s cannot be delivered", order.Status))
		}

		return tx.Model(order).Updates(map[string]interface{}{
			"status":       models.OrderDelivered,
			"delivered_at": time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndAnnounce(id)
}

// AcceptChange applies the staged proposal: items are rebuilt from the
// payload, the total recomputed, and the order returns to PREPARING.
func (s *OrderService) AcceptChange(id uint) (*models.Order, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		if order.Status != models.OrderChangeRequested {
			return utils.NewBadRequestError(
				fmt.Sprintf("order in status %s has no pending change", order.Status))
		}

		var payload proposedPayload
		if len(order.ProposedChanges) > 0 {
			if err := json.Unmarshal(order.ProposedChanges, &payload); err != nil {
				return utils.NewBadRequestError("corrupt data in proposed changes")
			}
		}
		if len(payload.Items) == 0 {
			return utils.NewBadRequestError("corrupt data in proposed changes")
		}

		if err := replaceItems(tx, order, payload.Items); err != nil {
			return err
		}
		return tx.Model(order).Updates(map[string]interface{}{
			"status":           models.OrderPreparing,
			"proposed_changes": nil,
			"total_price":      order.TotalPrice,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndAnnounce(id)
}

// RejectChange discards the staged proposal and resumes preparation.
func (s *OrderService) RejectChange(id uint) (*models.Order, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		if order.Status != models.OrderChangeRequested {
			return utils.NewBadRequestError(
				fmt.Sprintf("order in status %s has no pending change", order.Status))
		}

		return tx.Model(order).Updates(map[string]interface{}{
			"status":           models.OrderPreparing,
			"proposed_changes": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.reloadAndAnnounce(id)
}

// reloadAndAnnounce fetches the committed snapshot and pushes it to the
// kitchen group.
func (s *OrderService) reloadAndAnnounce(id uint) (*models.Order, error) {
	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	s.broadcast(kds.KitchenGroup, kds.StatusUpdateMessage(order))
	return order, nil
}

func (s *OrderService) broadcast(group string, msg kds.Message) {
	if s.Bus == nil {
		return
	}
	if err := s.Bus.Publish(group, msg); err != nil {
		utils.ErrorLogger.Printf("broadcast to %s failed: %v", group, err)
	}
}

// lockOrder loads the order with its items inside the transaction.
func lockOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("order")
		}
		return nil, err
	}
	return &order, nil
}

func resolveTable(tx *gorm.DB, id uint, code string) (*models.Table, error) {
	var table models.Table
	if id != 0 {
		if err := tx.First(&table, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NewNotFoundError("table")
			}
			return nil, err
		}
		return &table, nil
	}
	if code != "" {
		if err := tx.Where("code = ?", code).First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NewValidationError("table_code", "table not found")
			}
			return nil, err
		}
		return &table, nil
	}
	return nil, utils.NewValidationError("table", "a table id or code is required")
}

// buildItems snapshots each product's current base price into a new item row.
func buildItems(tx *gorm.DB, orderID uint, inputs []ItemInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		var product models.Product
		if err := tx.Where("name = ?", in.ProductName).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NewValidationError("items",
					fmt.Sprintf("product %q not found", in.ProductName))
			}
			return nil, err
		}
		items = append(items, models.OrderItem{
			OrderID:         orderID,
			ProductName:     product.Name,
			UnitPrice:       product.BasePrice,
			Notes:           in.Notes,
			SelectedOptions: datatypes.JSON(in.SelectedOptions),
		})
	}
	return items, nil
}

// replaceItems drops the order's current items, recreates them from inputs,
// and leaves the recomputed total on order.TotalPrice for the caller to
// persist in the same transaction.
func replaceItems(tx *gorm.DB, order *models.Order, inputs []ItemInput) error {
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}

	items, err := buildItems(tx, order.ID, inputs)
	if err != nil {
		return err
	}
	for i := range items {
		if err := tx.Create(&items[i]).Error; err != nil {
			return err
		}
	}

	order.Items = items
	order.RecomputeTotal()
	return nil
}
