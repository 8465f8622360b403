package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"comanda/kds"
	"comanda/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSController serves the long-lived display connections. Each connection
// joins its group on connect and is guaranteed to leave on disconnect, clean
// or abrupt, via the deferred LeaveAll.
type WSController struct {
	Hub *kds.Hub
}

func NewWSController(hub *kds.Hub) *WSController {
	return &WSController{Hub: hub}
}

// KitchenWS -> staff displays; requires an authenticated staff role set by
// the websocket auth middleware.
func (wc *WSController) KitchenWS(c *gin.Context) {
	roleInterface, exists := c.Get("role")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role := roleInterface.(string)
	if role != "admin" && role != "waiter" && role != "kitchen" {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer wc.Hub.LeaveAll(ws)

	wc.Hub.Join(kds.KitchenGroup, ws)
	utils.InfoLogger.Printf("Kitchen display connected (role=%s)", role)

	// Displays only listen; the read loop exists to notice disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

// TableWS -> one customer display per table code, no auth
func (wc *WSController) TableWS(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer wc.Hub.LeaveAll(ws)

	wc.Hub.Join(kds.TableGroup(code), ws)
	utils.InfoLogger.Printf("Table display connected (table=%s)", code)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
