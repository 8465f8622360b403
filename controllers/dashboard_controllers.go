package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"comanda/models"
	"comanda/utils"
)

// DashboardController serves read-only aggregates over settled orders
// (PAID / DELIVERED). Nothing here mutates state.
type DashboardController struct {
	DB *gorm.DB
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

var settledStatuses = []models.OrderStatus{models.OrderPaid, models.OrderDelivered}

// GetStats -> headline numbers: sales total, settled order count, average
// preparation time in seconds.
func (dc *DashboardController) GetStats(c *gin.Context) {
	var stats struct {
		SalesTotal     float64 `json:"sales_total"`
		OrderCount     int64   `json:"order_count"`
		AvgPrepSeconds float64 `json:"avg_prep_seconds"`
		OpenOrderCount int64   `json:"open_order_count"`
		OccupiedTables int64   `json:"occupied_tables"`
	}

	row := dc.DB.Model(&models.Order{}).
		Where("status IN ?", settledStatuses).
		Select("COALESCE(SUM(total_price), 0), COUNT(*)").Row()
	if err := row.Scan(&stats.SalesTotal, &stats.OrderCount); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Prep time spans preparing_at -> ready_at; averaged in Go so the same
	// query runs on MySQL and the SQLite test DB.
	var prepared []models.Order
	if err := dc.DB.Where("preparing_at IS NOT NULL AND ready_at IS NOT NULL").
		Find(&prepared).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if len(prepared) > 0 {
		var totalSeconds float64
		for _, o := range prepared {
			totalSeconds += o.ReadyAt.Sub(*o.PreparingAt).Seconds()
		}
		stats.AvgPrepSeconds = totalSeconds / float64(len(prepared))
	}

	dc.DB.Model(&models.Order{}).Where("status NOT IN ?", settledStatuses).
		Count(&stats.OpenOrderCount)
	dc.DB.Model(&models.Table{}).Where("status = ?", models.TableOccupied).
		Count(&stats.OccupiedTables)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetSalesHistory -> daily sales totals over settled orders
func (dc *DashboardController) GetSalesHistory(c *gin.Context) {
	var history []struct {
		Day   string  `json:"day"`
		Total float64 `json:"total"`
		Count int64   `json:"count"`
	}

	if err := dc.DB.Model(&models.Order{}).
		Where("status IN ?", settledStatuses).
		Select("DATE(created_at) as day, SUM(total_price) as total, COUNT(*) as count").
		Group("DATE(created_at)").
		Order("day desc").
		Scan(&history).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Sales history", history)
}

type productPerformance struct {
	ProductName    string  `json:"product_name"`
	TimesSold      int64   `json:"times_sold"`
	Revenue        float64 `json:"revenue"`
	AvgPrepSeconds float64 `json:"avg_prep_seconds"`
}

// GetProductPerformance -> top sellers plus the slowest products by average
// preparation time of the orders they appeared in.
func (dc *DashboardController) GetProductPerformance(c *gin.Context) {
	var items []models.OrderItem
	if err := dc.DB.
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status IN ?", settledStatuses).
		Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var settled []models.Order
	if err := dc.DB.Where("status IN ?", settledStatuses).Find(&settled).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	ordersByID := make(map[uint]models.Order, len(settled))
	for _, o := range settled {
		ordersByID[o.ID] = o
	}

	perf := make(map[string]*productPerformance)
	prepCounts := make(map[string]int64)

	for _, item := range items {
		p := perf[item.ProductName]
		if p == nil {
			p = &productPerformance{ProductName: item.ProductName}
			perf[item.ProductName] = p
		}
		p.TimesSold++
		p.Revenue += item.UnitPrice

		if order, ok := ordersByID[item.OrderID]; ok &&
			order.PreparingAt != nil && order.ReadyAt != nil {
			p.AvgPrepSeconds += order.ReadyAt.Sub(*order.PreparingAt).Seconds()
			prepCounts[item.ProductName]++
		}
	}

	result := make([]productPerformance, 0, len(perf))
	for name, p := range perf {
		if n := prepCounts[name]; n > 0 {
			p.AvgPrepSeconds /= float64(n)
		}
		result = append(result, *p)
	}

	topSelling := make([]productPerformance, len(result))
	copy(topSelling, result)
	sort.Slice(topSelling, func(i, j int) bool {
		return topSelling[i].TimesSold > topSelling[j].TimesSold
	})

	slowest := make([]productPerformance, len(result))
	copy(slowest, result)
	sort.Slice(slowest, func(i, j int) bool {
		return slowest[i].AvgPrepSeconds > slowest[j].AvgPrepSeconds
	})

	utils.RespondJSON(c, http.StatusOK, "Product performance", gin.H{
		"top_selling": clip(topSelling, 10),
		"slowest":     clip(slowest, 10),
	})
}

func clip(p []productPerformance, n int) []productPerformance {
	if len(p) > n {
		return p[:n]
	}
	return p
}
