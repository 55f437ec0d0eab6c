package handler

import (
	"github.com/gin-gonic/gin"

	appproduct "github.com/xiebiao/eventtickets/internal/application/product"
	"github.com/xiebiao/eventtickets/internal/interface/http/dto"
	"github.com/xiebiao/eventtickets/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/response"
)

// ProductHandler 商品HTTP处理器
type ProductHandler struct {
	publish *appproduct.PublishProductUseCase
	list    *appproduct.ListProductsUseCase
	adjust  *appproduct.AdjustCountersUseCase
}

// NewProductHandler 创建商品处理器
func NewProductHandler(
	publish *appproduct.PublishProductUseCase,
	list *appproduct.ListProductsUseCase,
	adjust *appproduct.AdjustCountersUseCase,
) *ProductHandler {
	return &ProductHandler{publish: publish, list: list, adjust: adjust}
}

// ListProducts 在售商品
// @Summary      在售商品列表
// @Tags         商品
// @Produce      json
// @Success      200 {object} response.Response{data=response.ListData}
// @Router       /api/v1/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	items, err := h.list.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithList(c, items, len(items))
}

// PublishProduct 商品上架
// @Summary      商品上架
// @Tags         管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishProductRequest true "商品信息"
// @Success      201 {object} response.Response{data=appproduct.ProductItem}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      403 {object} response.Response "需要管理员权限"
// @Router       /api/v1/admin/products [post]
func (h *ProductHandler) PublishProduct(c *gin.Context) {
	var req dto.PublishProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	item, err := h.publish.Execute(c.Request.Context(), appproduct.PublishProductRequest{
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
		MaxSold:     req.MaxSold,
		SellStart:   req.SellStart,
		SellEnd:     req.SellEnd,
		MembersOnly: req.MembersOnly,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// AdjustCounters 校正已售/预留数量
// @Summary      校正商品计数
// @Tags         管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key path string true "商品Key"
// @Param        request body dto.AdjustCountersRequest true "新的计数"
// @Success      200 {object} response.Response{data=appproduct.ProductItem}
// @Router       /api/v1/admin/products/{key}/counters [put]
func (h *ProductHandler) AdjustCounters(c *gin.Context) {
	var req dto.AdjustCountersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	item, err := h.adjust.Execute(c.Request.Context(), appproduct.AdjustCountersRequest{
		Key:      c.Param("key"),
		Sold:     *req.Sold,
		Reserved: *req.Reserved,
		AdminID:  middleware.MustGetCustomerID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}
