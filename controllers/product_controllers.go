package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"comanda/models"
	"comanda/utils"
)

type ProductController struct {
	DB *gorm.DB
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{DB: db}
}

// GetAllProducts -> catalog listing; ?category= exact match, ?q= substring
// match on the name.
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	q := pc.DB.Order("category asc, name asc")

	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	if search := c.Query("q"); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

// CreateProduct -> staff adds a catalog entry
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req struct {
		Name         string          `json:"name" binding:"required"`
		Category     string          `json:"category" binding:"required"`
		BasePrice    float64         `json:"base_price" binding:"required"`
		Description  string          `json:"description"`
		OptionSchema *datatypes.JSON `json:"option_schema"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	product := models.Product{
		Name:        req.Name,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		Description: req.Description,
	}
	if req.OptionSchema != nil {
		product.OptionSchema = *req.OptionSchema
	}

	if err := pc.DB.Create(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

// GetProductByID -> detail of one product
func (pc *ProductController) GetProductByID(c *gin.Context) {
	var product models.Product
	if err := pc.DB.First(&product, c.Param("product_id")).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("product"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}

// UpdateProduct -> price changes affect future orders only; placed items
// keep their captured unit price.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req struct {
		Name         *string         `json:"name"`
		Category     *string         `json:"category"`
		BasePrice    *float64        `json:"base_price"`
		Description  *string         `json:"description"`
		OptionSchema *datatypes.JSON `json:"option_schema"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var product models.Product
	if err := pc.DB.First(&product, c.Param("product_id")).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("product"))
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.BasePrice != nil {
		product.BasePrice = *req.BasePrice
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.OptionSchema != nil {
		product.OptionSchema = *req.OptionSchema
	}

	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

// DeleteProduct
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	var product models.Product
	if err := pc.DB.First(&product, c.Param("product_id")).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("product"))
		return
	}

	if err := pc.DB.Delete(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product deleted", gin.H{"id": product.ID})
}
