package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"comanda/controllers"
	"comanda/kds"
	"comanda/middlewares"
	"comanda/services"
)

// SetupRouter wires controllers to routes. The hub is passed in rather than
// looked up so tests can run the whole router against a throwaway hub.
func SetupRouter(db *gorm.DB, hub *kds.Hub, bus kds.Publisher) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	orderSvc := services.NewOrderService(db, bus)
	tableSvc := services.NewTableService(db, bus)

	userCtrl := controllers.NewUserController(db)
	orderCtrl := controllers.NewOrderController(orderSvc, tableSvc)
	tableCtrl := controllers.NewTableController(db, tableSvc)
	productCtrl := controllers.NewProductController(db)
	customerCtrl := controllers.NewCustomerController(tableSvc)
	dashboardCtrl := controllers.NewDashboardController(db)
	wsCtrl := controllers.NewWSController(hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Customer table displays (no auth)
	r.GET("/api/products", productCtrl.GetAllProducts)
	r.POST("/api/orders", orderCtrl.CreateOrder)
	r.GET("/api/customer/table/:code", customerCtrl.CheckSession)
	r.POST("/api/customer/table/:code/call", customerCtrl.CallWaiter)
	r.POST("/api/customer/rate", customerCtrl.Rate)

	// Real-time channels: staff displays authenticate via query token,
	// table displays are open and scoped by code.
	wsGroup := r.Group("/ws")
	wsGroup.GET("/kitchen", middlewares.WebSocketAuthMiddleware(), wsCtrl.KitchenWS)
	wsGroup.GET("/table/:code", wsCtrl.TableWS)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	// ORDERS
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.PUT("/orders/:order_id", orderCtrl.UpdateOrder)
	auth.DELETE("/orders/:order_id", orderCtrl.DeleteOrder)
	auth.PATCH("/orders/:order_id/set-status", orderCtrl.SetStatus)
	auth.PATCH("/orders/:order_id/mark-delivered", orderCtrl.MarkDelivered)
	auth.POST("/orders/:order_id/accept-change", orderCtrl.AcceptChange)
	auth.POST("/orders/:order_id/reject-change", orderCtrl.RejectChange)
	auth.POST("/orders/close-table", orderCtrl.CloseTable)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	auth.POST("/tables/:table_id/mark-attended", tableCtrl.MarkAttended)

	// PRODUCTS (catalog management)
	auth.POST("/products", productCtrl.CreateProduct)
	auth.GET("/products/:product_id", productCtrl.GetProductByID)
	auth.PATCH("/products/:product_id", productCtrl.UpdateProduct)
	auth.DELETE("/products/:product_id", productCtrl.DeleteProduct)

	// DASHBOARD
	auth.GET("/dashboard/stats", dashboardCtrl.GetStats)
	auth.GET("/dashboard/sales-history", dashboardCtrl.GetSalesHistory)
	auth.GET("/dashboard/product-performance", dashboardCtrl.GetProductPerformance)

	return r
}
