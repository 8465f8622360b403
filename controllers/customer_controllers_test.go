package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"comanda/controllers"
	"comanda/models"
	"comanda/services"
)

func setupCustomerRouter(db *gorm.DB) (*gin.Engine, *services.OrderService) {
	r := gin.New()
	orderSvc := services.NewOrderService(db, noopBus{})
	tableSvc := services.NewTableService(db, noopBus{})
	ctrl := controllers.NewCustomerController(tableSvc)

	r.GET("/customer/table/:code", ctrl.CheckSession)
	r.POST("/customer/table/:code/call", ctrl.CallWaiter)
	r.POST("/customer/rate", ctrl.Rate)
	return r, orderSvc
}

func TestCheckSessionNeverLeaksTokenWhenFree(t *testing.T) {
	db := setupTestDB(t)
	r, orderSvc := setupCustomerRouter(db)

	w := doJSON(t, r, "GET", "/customer/table/M-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	_, hasToken := data["session_token"]
	assert.False(t, hasToken)

	_, err := orderSvc.CreateOrder(services.CreateOrderInput{
		TableCode: "M-01",
		Items:     []services.ItemInput{{ProductName: "Mango Juice"}},
	})
	require.NoError(t, err)

	w = doJSON(t, r, "GET", "/customer/table/M-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = responseData(t, w)
	token, hasToken := data["session_token"]
	assert.True(t, hasToken)
	assert.NotEmpty(t, token)
}

func TestCheckSessionUnknownTable(t *testing.T) {
	db := setupTestDB(t)
	r, _ := setupCustomerRouter(db)

	w := doJSON(t, r, "GET", "/customer/table/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallWaiterTokenCheck(t *testing.T) {
	db := setupTestDB(t)
	r, orderSvc := setupCustomerRouter(db)

	_, err := orderSvc.CreateOrder(services.CreateOrderInput{
		TableCode: "M-01",
		Items:     []services.ItemInput{{ProductName: "Mango Juice"}},
	})
	require.NoError(t, err)

	w := doJSON(t, r, "POST", "/customer/table/M-01/call",
		map[string]interface{}{"token": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var table models.Table
	require.NoError(t, db.Where("code = ?", "M-01").First(&table).Error)
	require.NotNil(t, table.SessionToken)

	w = doJSON(t, r, "POST", "/customer/table/M-01/call",
		map[string]interface{}{"token": *table.SessionToken})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Where("code = ?", "M-01").First(&table).Error)
	assert.True(t, table.NeedsAssistance)
}

func TestRateEndpointBounds(t *testing.T) {
	db := setupTestDB(t)
	r, orderSvc := setupCustomerRouter(db)

	order, err := orderSvc.CreateOrder(services.CreateOrderInput{
		TableCode: "M-01",
		Items:     []services.ItemInput{{ProductName: "Mango Juice"}},
	})
	require.NoError(t, err)
	itemID := order.Items[0].ID

	for _, bad := range []int{0, -1, 6, 99} {
		w := doJSON(t, r, "POST", "/customer/rate", map[string]interface{}{
			"order_item": itemID,
			"rating":     bad,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code,
			fmt.Sprintf("rating %d should be rejected", bad))
	}

	w := doJSON(t, r, "POST", "/customer/rate", map[string]interface{}{
		"order_item": itemID,
		"rating":     3,
		"comment":    "decent",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var review models.Review
	require.NoError(t, db.Where("order_item_id = ?", itemID).First(&review).Error)
	assert.Equal(t, 3, review.Rating)
	assert.Equal(t, "decent", review.Comment)
}
