package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"comanda/models"
	"comanda/services"
	"comanda/utils"
)

type TableController struct {
	DB     *gorm.DB
	Tables *services.TableService
}

func NewTableController(db *gorm.DB, tables *services.TableService) *TableController {
	return &TableController{DB: db, Tables: tables}
}

// CreateTable -> register a new table code
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Code     string `json:"code" binding:"required"`
		IsActive *bool  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		Code:     req.Code,
		IsActive: true,
		Status:   models.TableFree,
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s", table.Code)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// GetAllTables -> ?active=1 keeps active tables only, ?status=FREE filters
// by occupancy.
func (tc *TableController) GetAllTables(c *gin.Context) {
	q := tc.DB.Order("code asc")

	switch c.Query("active") {
	case "1", "true", "True":
		q = q.Where("is_active = ?", true)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var tables []models.Table
	if err := q.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> detail of one table
func (tc *TableController) GetTableByID(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("table"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTable -> rename or (de)activate a table; occupancy is owned by the
// order flow, not this endpoint.
func (tc *TableController) UpdateTable(c *gin.Context) {
	var req struct {
		Code     *string `json:"code"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("table"))
		return
	}

	if req.Code != nil {
		table.Code = *req.Code
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}

	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> refused while any order still references the table
func (tc *TableController) DeleteTable(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("table"))
		return
	}

	var orderCount int64
	if err := tc.DB.Model(&models.Order{}).Where("table_id = ?", table.ID).
		Count(&orderCount).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if orderCount > 0 {
		utils.RespondError(c, http.StatusForbidden,
			errors.New("table has orders and cannot be deleted"))
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}

// MarkAttended -> staff answered the waiter call
func (tc *TableController) MarkAttended(c *gin.Context) {
	id := paramUint(c, "table_id")
	table, err := tc.Tables.ClearAssistance(id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table marked attended", table)
}
