package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"comanda/kds"
	"comanda/models"
	"comanda/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// fakeBus records what the services publish so tests can assert on groups
// and message kinds without a live websocket hub.
type fakeBus struct {
	mu        sync.Mutex
	published []publishedMsg
	fail      bool
}

type publishedMsg struct {
	Group string
	Msg   kds.Message
}

func (f *fakeBus) Publish(group string, msg kds.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("bus down")
	}
	f.published = append(f.published, publishedMsg{Group: group, Msg: msg})
	return nil
}

func (f *fakeBus) messages(group string) []kds.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []kds.Message
	for _, p := range f.published {
		if p.Group == group {
			out = append(out, p.Msg)
		}
	}
	return out
}

func (f *fakeBus) lastType(group string) string {
	msgs := f.messages(group)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Type
}

func newTestDB(t *testing.T) *gorm.DB {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Table{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
	))

	seedCatalog(t, db)
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	products := []models.Product{
		{Name: "Mango Juice", Category: models.CategoryJuice, BasePrice: 10.00},
		{Name: "Club Sandwich", Category: models.CategorySandwich, BasePrice: 20.00},
		{Name: "Veggie Sandwich", Category: models.CategorySandwich, BasePrice: 30.00},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}
	require.NoError(t, db.Create(&models.Table{Code: "M-01", IsActive: true, Status: models.TableFree}).Error)
}

func mustCreateOrder(t *testing.T, svc *OrderService, productNames ...string) *models.Order {
	items := make([]ItemInput, 0, len(productNames))
	for _, name := range productNames {
		items = append(items, ItemInput{ProductName: name})
	}
	order, err := svc.CreateOrder(CreateOrderInput{TableCode: "M-01", Items: items})
	require.NoError(t, err)
	return order
}

func TestCreateOrderComputesTotalAndOccupiesTable(t *testing.T) {
	db := newTestDB(t)
	bus := &fakeBus{}
	svc := NewOrderService(db, bus)

	order := mustCreateOrder(t, svc, "Mango Juice", "Club Sandwich")

	assert.Equal(t, models.OrderNew, order.Status)
	assert.Equal(t, 30.00, order.TotalPrice)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 10.00, order.Items[0].UnitPrice)

	var table models.Table
	require.NoError(t, db.Where("code = ?", "M-01").First(&table).Error)
	assert.Equal(t, models.TableOccupied, table.Status)
	require.NotNil(t, table.SessionToken)

	msgs := bus.messages(kds.KitchenGroup)
	require.Len(t, msgs, 1)
	assert.Equal(t, kds.EventNewOrder, msgs[0].Type)
}

func TestCreateOrderRepeatedProductMakesSeparateRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice", "Mango Juice")

	assert.Len(t, order.Items, 2)
	assert.Equal(t, 20.00, order.TotalPrice)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	_, err := svc.CreateOrder(CreateOrderInput{
		TableCode: "M-01",
		Items:     []ItemInput{{ProductName: "Pizza"}},
	})

	var validationErr *utils.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "Pizza")
}

func TestCreateOrderTableResolution(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	_, err := svc.CreateOrder(CreateOrderInput{
		TableCode: "NOPE",
		Items:     []ItemInput{{ProductName: "Mango Juice"}},
	})
	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.CreateOrder(CreateOrderInput{
		Items: []ItemInput{{ProductName: "Mango Juice"}},
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestBroadcastFailureDoesNotFailCreate(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{fail: true})

	order := mustCreateOrder(t, svc, "Mango Juice")
	assert.NotZero(t, order.ID)
}

func TestUpdateOrderDirectEdit(t *testing.T) {
	db := newTestDB(t)
	bus := &fakeBus{}
	svc := NewOrderService(db, bus)

	order := mustCreateOrder(t, svc, "Mango Juice")

	updated, err := svc.UpdateOrder(order.ID, UpdateOrderInput{
		Items: []ItemInput{{ProductName: "Club Sandwich"}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderNew, updated.Status)
	assert.Equal(t, 20.00, updated.TotalPrice)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Club Sandwich", updated.Items[0].ProductName)
	assert.Empty(t, updated.ProposedChanges)
	assert.Equal(t, kds.EventStatusUpdate, bus.lastType(kds.KitchenGroup))
}

func TestUpdateOrderMidPreparationStagesChange(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")
	_, err := svc.SetStatus(order.ID, string(models.OrderPreparing))
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(order.ID, UpdateOrderInput{
		Items: []ItemInput{{ProductName: "Club Sandwich"}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderChangeRequested, updated.Status)
	// Items are untouched until the kitchen accepts.
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Mango Juice", updated.Items[0].ProductName)
	assert.Equal(t, 10.00, updated.TotalPrice)
	assert.NotEmpty(t, updated.ProposedChanges)
}

func TestUpdateOrderWaiterEditReportsPreviousStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")
	_, err := svc.SetStatus(order.ID, string(models.OrderPreparing))
	require.NoError(t, err)
	_, err = svc.SetStatus(order.ID, string(models.OrderWaiterEditing))
	require.NoError(t, err)

	// The edit started from PREPARING, so it must be staged even though the
	// order currently sits in WAITER_EDITING.
	updated, err := svc.UpdateOrder(order.ID, UpdateOrderInput{
		Items:                []ItemInput{{ProductName: "Club Sandwich"}},
		PreviousStatusOnEdit: string(models.OrderPreparing),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderChangeRequested, updated.Status)
	assert.NotEmpty(t, updated.ProposedChanges)
}

func TestUpdateOrderRejectedStates(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", models.OrderReady).Error)

	_, err := svc.UpdateOrder(order.ID, UpdateOrderInput{
		Items: []ItemInput{{ProductName: "Club Sandwich"}},
	})

	var transitionErr *utils.IllegalTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestUpdateOrderEmptyItems(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")

	_, err := svc.UpdateOrder(order.ID, UpdateOrderInput{})
	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestAcceptChangeAppliesProposal(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")
	_, err := svc.SetStatus(order.ID, string(models.OrderPreparing))
	require.NoError(t, err)
	_, err = svc.UpdateOrder(order.ID, UpdateOrderInput{
		Items: []ItemInput{{ProductName: "Club Sandwich"}, {ProductName: "Veggie Sandwich"}},
	})
	require.NoError(t, err)

	accepted, err := svc.AcceptChange(order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPreparing, accepted.Status)
	assert.Equal(t, 50.00, accepted.TotalPrice)
	require.Len(t, accepted.Items, 2)
	assert.Empty(t, accepted.ProposedChanges)
}

func TestAcceptChangeWithoutProposalFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", models.OrderChangeRequested).Error)

	_, err := svc.AcceptChange(order.ID)
	var badReq *utils.BadRequestError
	require.ErrorAs(t, err, &badReq)
	assert.Contains(t, err.Error(), "corrupt data")
}

func TestAcceptChangeWrongStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")

	_, err := svc.AcceptChange(order.ID)
	var badReq *utils.BadRequestError
	assert.ErrorAs(t, err, &badReq)
}

func TestRejectChangeDiscardsProposal(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")
	_, err := svc.SetStatus(order.ID, string(models.OrderPreparing))
	require.NoError(t, err)
	_, err = svc.UpdateOrder(order.ID, UpdateOrderInput{
		Items: []ItemInput{{ProductName: "Club Sandwich"}},
	})
	require.NoError(t, err)

	rejected, err := svc.RejectChange(order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPreparing, rejected.Status)
	assert.Empty(t, rejected.ProposedChanges)
	require.Len(t, rejected.Items, 1)
	assert.Equal(t, "Mango Juice", rejected.Items[0].ProductName)
	assert.Equal(t, 10.00, rejected.TotalPrice)
}

func TestSetStatusWaiterEditingGuard(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")

	_, err := svc.SetStatus(order.ID, string(models.OrderWaiterEditing))
	assert.NoError(t, err)

	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", models.OrderReady).Error)
	_, err = svc.SetStatus(order.ID, string(models.OrderWaiterEditing))
	var transitionErr *utils.IllegalTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestSetStatusStampsTimestampsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")

	prep, err := svc.SetStatus(order.ID, string(models.OrderPreparing))
	require.NoError(t, err)
	require.NotNil(t, prep.PreparingAt)
	firstPreparingAt := *prep.PreparingAt

	ready, err := svc.SetStatus(order.ID, string(models.OrderReady))
	require.NoError(t, err)
	require.NotNil(t, ready.ReadyAt)
	assert.False(t, ready.ReadyAt.Before(*ready.PreparingAt))

	// Going back to PREPARING must not move the original stamp.
	again, err := svc.SetStatus(order.ID, string(models.OrderPreparing))
	require.NoError(t, err)
	assert.Equal(t, firstPreparingAt.Unix(), again.PreparingAt.Unix())
}

func TestSetStatusInvalidValue(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")

	_, err := svc.SetStatus(order.ID, "COOKED")
	var badReq *utils.BadRequestError
	assert.ErrorAs(t, err, &badReq)
}

func TestMarkDelivered(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")

	_, err := svc.MarkDelivered(order.ID)
	var badReq *utils.BadRequestError
	require.ErrorAs(t, err, &badReq)

	_, err = svc.SetStatus(order.ID, string(models.OrderReady))
	require.NoError(t, err)

	delivered, err := svc.MarkDelivered(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)
}

func TestDeleteOrderGuards(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")
	_, err := svc.SetStatus(order.ID, string(models.OrderPreparing))
	require.NoError(t, err)

	err = svc.DeleteOrder(order.ID)
	var transitionErr *utils.IllegalTransitionError
	require.ErrorAs(t, err, &transitionErr)

	second := mustCreateOrder(t, svc, "Club Sandwich")
	require.NoError(t, svc.DeleteOrder(second.ID))

	var count int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", second.ID).Count(&count)
	assert.Zero(t, count)
}

func TestListOrdersStatusFilter(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice", "Club Sandwich")

	listed, err := svc.ListOrders(string(models.OrderNew))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, order.ID, listed[0].ID)
	assert.Len(t, listed[0].Items, 2)

	paid, err := svc.ListOrders(string(models.OrderPaid))
	require.NoError(t, err)
	assert.Empty(t, paid)

	both, err := svc.ListOrders("NEW,PAID")
	require.NoError(t, err)
	assert.Len(t, both, 1)

	_, err = svc.ListOrders("NEW,BOGUS")
	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestProposedChangesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, &fakeBus{})

	order := mustCreateOrder(t, svc, "Mango Juice")
	_, err := svc.SetStatus(order.ID, string(models.OrderPreparing))
	require.NoError(t, err)

	staged, err := svc.UpdateOrder(order.ID, UpdateOrderInput{
		Items: []ItemInput{{ProductName: "Club Sandwich", Notes: "no mayo"}},
	})
	require.NoError(t, err)

	var payload struct {
		Items []ItemInput `json:"items"`
	}
	require.NoError(t, json.Unmarshal(staged.ProposedChanges, &payload))
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "no mayo", payload.Items[0].Notes)
}
