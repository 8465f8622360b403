package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"comanda/kds"
	"comanda/models"
	"comanda/utils"
)

// canRateWindow is how long after payment a table's guests may still leave
// ratings from the table display.
const canRateWindow = 30 * time.Minute

// TableService is the table registry plus the customer-facing session and
// review gateway.
type TableService struct {
	DB  *gorm.DB
	Bus kds.Publisher
}

func NewTableService(db *gorm.DB, bus kds.Publisher) *TableService {
	return &TableService{DB: db, Bus: bus}
}

// occupyTable flips a FREE table to OCCUPIED and issues a fresh session
// token. Calling it on an OCCUPIED table is a no-op that preserves the
// existing token, so concurrent orders from one table share a session.
func occupyTable(tx *gorm.DB, table *models.Table) error {
	if table.Status == models.TableOccupied {
		return nil
	}

	token := uuid.NewString()
	table.Status = models.TableOccupied
	table.SessionToken = &token
	return tx.Save(table).Error
}

// CloseTable settles the whole table: every order not already PAID is
// stamped PAID with one shared timestamp, the table returns to FREE with its
// token and assistance flag cleared, and the table display is told the
// session ended. Returns the sum billed for the closed orders.
func (s *TableService) CloseTable(tableID uint) (float64, error) {
	var (
		total     float64
		tableCode string
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("table")
			}
			return err
		}
		tableCode = table.Code

		var open []models.Order
		if err := tx.Where("table_id = ? AND status <> ?", table.ID, models.OrderPaid).
			Find(&open).Error; err != nil {
			return err
		}

		now := time.Now()
		for i := range open {
			total += open[i].TotalPrice
			if err := tx.Model(&open[i]).Updates(map[string]interface{}{
				"status":  models.OrderPaid,
				"paid_at": now,
			}).Error; err != nil {
				return err
			}
		}

		table.Status = models.TableFree
		table.SessionToken = nil
		table.NeedsAssistance = false
		return tx.Save(&table).Error
	})
	if err != nil {
		return 0, err
	}

	s.broadcast(kds.TableGroup(tableCode), kds.TableClosedMessage(tableCode))
	return total, nil
}

// RequestAssistance is the customer "call waiter" action. The caller must
// present the table's current session token.
func (s *TableService) RequestAssistance(code, clientToken string) (*models.Table, error) {
	table, err := s.findByCode(code)
	if err != nil {
		return nil, err
	}

	if table.SessionToken == nil || *table.SessionToken != clientToken {
		return nil, utils.NewIllegalTransitionError("session token mismatch")
	}

	table.NeedsAssistance = true
	if err := s.DB.Save(table).Error; err != nil {
		return nil, err
	}

	s.broadcast(kds.KitchenGroup, kds.WaiterCallMessage(table.Code, "ON"))
	return table, nil
}

// ClearAssistance is the staff "mark attended" action: the table display
// learns the waiter is coming and the kitchen alert is cleared.
func (s *TableService) ClearAssistance(tableID uint) (*models.Table, error) {
	var table models.Table
	if err := s.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("table")
		}
		return nil, err
	}

	table.NeedsAssistance = false
	if err := s.DB.Save(&table).Error; err != nil {
		return nil, err
	}

	s.broadcast(kds.TableGroup(table.Code), kds.WaiterComingMessage(table.Code))
	s.broadcast(kds.KitchenGroup, kds.WaiterCallMessage(table.Code, "OFF"))
	return &table, nil
}

// SessionInfo is the customer display's view of its table.
type SessionInfo struct {
	Table       models.Table `json:"table"`
	CanRate     bool         `json:"can_rate"`
	ItemsToRate []string     `json:"items_to_rate"`
	// SessionToken is only present while the table is occupied; a FREE
	// table must never leak a stale token.
	SessionToken *string `json:"session_token,omitempty"`
}

// CheckSession answers the table display's polling question: is a session
// live, and may the guests rate what they just paid for.
func (s *TableService) CheckSession(code string) (*SessionInfo, error) {
	table, err := s.findByCode(code)
	if err != nil {
		return nil, err
	}

	info := &SessionInfo{Table: *table}
	if table.Status == models.TableOccupied {
		info.SessionToken = table.SessionToken
	}

	var recent []models.Order
	cutoff := time.Now().Add(-canRateWindow)
	if err := s.DB.Preload("Items").
		Where("table_id = ? AND status = ? AND updated_at > ?", table.ID, models.OrderPaid, cutoff).
		Order("updated_at desc").
		Find(&recent).Error; err != nil {
		return nil, err
	}

	info.CanRate = len(recent) > 0 && table.Status == models.TableFree
	info.ItemsToRate = distinctProductNames(recent)
	return info, nil
}

// Rate records a customer review for one order item. Intentionally not tied
// to the session token; see CheckSession for what gates the UI instead.
func (s *TableService) Rate(orderItemID uint, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, utils.NewValidationError("rating", "must be between 1 and 5")
	}

	var item models.OrderItem
	if err := s.DB.First(&item, orderItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("order item")
		}
		return nil, err
	}

	review := models.Review{
		OrderItemID: item.ID,
		Rating:      rating,
		Comment:     comment,
	}
	if err := s.DB.Create(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *TableService) findByCode(code string) (*models.Table, error) {
	var table models.Table
	if err := s.DB.Where("code = ?", code).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("table")
		}
		return nil, err
	}
	return &table, nil
}

func (s *TableService) broadcast(group string, msg kds.Message) {
	if s.Bus == nil {
		return
	}
	if err := s.Bus.Publish(group, msg); err != nil {
		utils.ErrorLogger.Printf("broadcast to %s failed: %v", group, err)
	}
}

// distinctProductNames keeps the first occurrence of each product across the
// given orders.
func distinctProductNames(orders []models.Order) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, order := range orders {
		for _, item := range order.Items {
			if !seen[item.ProductName] {
				seen[item.ProductName] = true
				names = append(names, item.ProductName)
			}
		}
	}
	return names
}
