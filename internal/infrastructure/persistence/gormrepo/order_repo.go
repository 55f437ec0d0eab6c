package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// orderRepository 订单仓储实现
// 教学要点:
// 1. Order和OrderProduct是聚合关系,必须一起保存、一起加载
// 2. 状态转换前先SELECT ... FOR UPDATE锁定订单行,写入时再用version做比较并交换
// 3. 事务通过context传递
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单(GORM会自动保存关联的Products)
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.New(apperrors.ErrCodeDuplicateEntry, "订单号已存在")
		}
		return apperrors.Wrap(err, "创建订单失败")
	}

	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	for i := range o.Products {
		o.Products[i].ID = model.Products[i].ID
		o.Products[i].OrderID = model.ID
	}
	return nil
}

func (r *orderRepository) FindByReference(ctx context.Context, reference string) (*order.Order, error) {
	var model OrderModel
	err := r.getDB(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("public_reference = ?", reference).
		First(&model).Error
	if err != nil {
		return nil, r.lookupError(err, reference)
	}
	return toOrderEntity(&model), nil
}

// LockByReference 悲观锁查询订单
// 必须在事务中调用,锁一直持有到事务结束
func (r *orderRepository) LockByReference(ctx context.Context, reference string) (*order.Order, error) {
	db := r.getDB(ctx)

	var model OrderModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("public_reference = ?", reference).
		First(&model).Error
	if err != nil {
		return nil, r.lookupError(err, reference)
	}

	// 明细单独查询,不对明细行加锁
	if err := db.Where("order_id = ?", model.ID).Order("id ASC").Find(&model.Products).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询订单明细失败")
	}
	return toOrderEntity(&model), nil
}

func (r *orderRepository) FindByExternalPaymentReference(ctx context.Context, reference string) (*order.Order, error) {
	if reference == "" {
		return nil, order.ErrOrderNotFound
	}
	var model OrderModel
	err := r.getDB(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("external_payment_reference = ?", reference).
		First(&model).Error
	if err != nil {
		return nil, r.lookupError(err, reference)
	}
	return toOrderEntity(&model), nil
}

// Update 更新订单(比较并交换)
// UPDATE orders SET ..., version = version + 1 WHERE id = ? AND version = ?
// 明细在离开ANONYMOUS后不可变,这里不写明细
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	db := r.getDB(ctx)
	result := db.Model(&OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]interface{}{
			"status":                     string(o.Status),
			"owner_id":                   o.OwnerID,
			"payment_method":             string(o.PaymentMethod),
			"total_amount":               o.TotalAmount,
			"paid_at":                    o.PaidAt,
			"external_payment_reference": o.ExternalPaymentReference,
			"version":                    gorm.Expr("version + ?", 1),
			"updated_at":                 o.UpdatedAt,
		})
	if result.Error != nil {
		if isLockTimeout(result.Error) {
			return apperrors.ErrConflictingUpdate.WithCause(result.Error)
		}
		return apperrors.Wrap(result.Error, "更新订单失败")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&OrderModel{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询订单失败")
		}
		if count == 0 {
			return order.ErrOrderNotFound
		}
		return apperrors.ErrConflictingUpdate.WithMessagef("订单%s已被其他请求修改", o.PublicReference)
	}

	o.Version++
	return nil
}

func (r *orderRepository) ListByOwnerAndStatus(ctx context.Context, ownerID uint, status order.Status) ([]*order.Order, error) {
	var models []OrderModel
	err := r.getDB(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("owner_id = ? AND status = ?", ownerID, string(status)).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, nil
}

func (r *orderRepository) lookupError(err error, reference string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return order.ErrOrderNotFound.WithMessagef("订单%s不存在", reference)
	}
	if isLockTimeout(err) {
		return apperrors.ErrConflictingUpdate.WithCause(err)
	}
	return apperrors.Wrap(err, "查询订单失败")
}

func (r *orderRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toOrderModel(o *order.Order) *OrderModel {
	products := make([]OrderProductModel, len(o.Products))
	for i, p := range o.Products {
		products[i] = OrderProductModel{
			ID:         p.ID,
			OrderID:    p.OrderID,
			ProductID:  p.ProductID,
			ProductKey: p.ProductKey,
			UnitPrice:  p.UnitPrice,
			Quantity:   p.Quantity,
		}
	}

	return &OrderModel{
		ID:                       o.ID,
		PublicReference:          o.PublicReference,
		Status:                   string(o.Status),
		OwnerID:                  o.OwnerID,
		PaymentMethod:            string(o.PaymentMethod),
		TotalAmount:              o.TotalAmount,
		PaidAt:                   o.PaidAt,
		ExternalPaymentReference: o.ExternalPaymentReference,
		Version:                  o.Version,
		Products:                 products,
		CreatedAt:                o.CreatedAt,
		UpdatedAt:                o.UpdatedAt,
	}
}

func toOrderEntity(m *OrderModel) *order.Order {
	products := make([]order.OrderProduct, len(m.Products))
	for i, p := range m.Products {
		products[i] = order.OrderProduct{
			ID:         p.ID,
			OrderID:    p.OrderID,
			ProductID:  p.ProductID,
			ProductKey: p.ProductKey,
			UnitPrice:  p.UnitPrice,
			Quantity:   p.Quantity,
		}
	}

	return &order.Order{
		ID:                       m.ID,
		PublicReference:          m.PublicReference,
		Status:                   order.Status(m.Status),
		OwnerID:                  m.OwnerID,
		PaymentMethod:            order.PaymentMethod(m.PaymentMethod),
		TotalAmount:              m.TotalAmount,
		PaidAt:                   m.PaidAt,
		ExternalPaymentReference: m.ExternalPaymentReference,
		Version:                  m.Version,
		Products:                 products,
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}
}
