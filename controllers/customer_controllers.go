package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"comanda/services"
	"comanda/utils"
)

// CustomerController is the unauthenticated surface used by table displays.
type CustomerController struct {
	Tables *services.TableService
}

func NewCustomerController(tables *services.TableService) *CustomerController {
	return &CustomerController{Tables: tables}
}

// CheckSession -> GET /table/:code; returns the table snapshot, whether the
// guests may rate, and the session token while the table is occupied.
func (cc *CustomerController) CheckSession(c *gin.Context) {
	info, err := cc.Tables.CheckSession(c.Param("code"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session info", info)
}

// CallWaiter -> POST /table/:code/call with the session token
func (cc *CustomerController) CallWaiter(c *gin.Context) {
	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := cc.Tables.RequestAssistance(c.Param("code"), body.Token)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Waiter called from table %s", table.Code)
	utils.RespondJSON(c, http.StatusOK, "Waiter called", table)
}

// Rate -> POST /rate with an order item and a 1..5 rating
func (cc *CustomerController) Rate(c *gin.Context) {
	var body struct {
		OrderItem uint   `json:"order_item" binding:"required"`
		Rating    int    `json:"rating" binding:"required"`
		Comment   string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	review, err := cc.Tables.Rate(body.OrderItem, body.Rating, body.Comment)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Review created", review)
}
