package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"comanda/services"
	"comanda/utils"
)

type OrderController struct {
	Orders *services.OrderService
	Tables *services.TableService
}

func NewOrderController(orders *services.OrderService, tables *services.TableService) *OrderController {
	return &OrderController{Orders: orders, Tables: tables}
}

// GetAllOrders -> list orders with items; ?status=NEW,PREPARING filters with
// OR semantics.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.ListOrders(c.Query("status"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// CreateOrder -> customer or waiter places an order for a table (by id or
// code); occupies the table as a side effect.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body services.CreateOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(body)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order #%d created for table %s (total=%.2f)",
		order.ID, order.Table.Code, order.TotalPrice)
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> detail of one order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id := paramUint(c, "order_id")
	order, err := oc.Orders.GetOrder(id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrder -> edit the item list; edits that started mid-preparation get
// staged as a change request instead of applied.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	id := paramUint(c, "order_id")

	var body services.UpdateOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateOrder(id, body)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// DeleteOrder -> only before the kitchen starts (NEW / WAITER_EDITING)
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	id := paramUint(c, "order_id")
	if err := oc.Orders.DeleteOrder(id); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", gin.H{"order_id": id})
}

// SetStatus -> PATCH { "status": "..." }
func (oc *OrderController) SetStatus(c *gin.Context) {
	id := paramUint(c, "order_id")

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.SetStatus(id, body.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// MarkDelivered -> READY orders only
func (oc *OrderController) MarkDelivered(c *gin.Context) {
	id := paramUint(c, "order_id")
	order, err := oc.Orders.MarkDelivered(id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order delivered", order)
}

// AcceptChange -> kitchen applies the staged edit
func (oc *OrderController) AcceptChange(c *gin.Context) {
	id := paramUint(c, "order_id")
	order, err := oc.Orders.AcceptChange(id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Change accepted", order)
}

// RejectChange -> kitchen discards the staged edit
func (oc *OrderController) RejectChange(c *gin.Context) {
	id := paramUint(c, "order_id")
	order, err := oc.Orders.RejectChange(id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Change rejected", order)
}

// CloseTable -> settle every open order of a table in one transaction
func (oc *OrderController) CloseTable(c *gin.Context) {
	var body struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	total, err := oc.Tables.CloseTable(body.TableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %d closed (billed=%.2f)", body.TableID, total)
	utils.RespondJSON(c, http.StatusOK, "Table closed", gin.H{"total_billed": total})
}

func paramUint(c *gin.Context, name string) uint {
	v, _ := strconv.ParseUint(c.Param(name), 10, 64)
	return uint(v)
}
