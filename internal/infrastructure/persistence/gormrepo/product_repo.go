package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/eventtickets/internal/domain/product"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// capacityCondition 检查与自增在同一条UPDATE中完成,行锁由UPDATE本身持有
const capacityCondition = "(max_sold IS NULL OR sold + reserved + ? <= max_sold)"

// productRepository 商品仓储实现
// 设计说明:
// 1. 实现domain/product/repository.go定义的接口
// 2. sold/reserved只通过条件UPDATE修改,不提供整行Save
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	model := toProductModel(p)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.New(apperrors.ErrCodeDuplicateEntry, "商品标识已存在")
		}
		return apperrors.Wrap(err, "创建商品失败")
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	if err := r.getDB(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "查询商品失败")
	}
	return toProductEntity(&model), nil
}

func (r *productRepository) FindByKey(ctx context.Context, key string) (*product.Product, error) {
	var model ProductModel
	if err := r.getDB(ctx).Where("product_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound.WithMessagef("商品%s不存在", key)
		}
		return nil, apperrors.Wrap(err, "查询商品失败")
	}
	return toProductEntity(&model), nil
}

func (r *productRepository) List(ctx context.Context) ([]*product.Product, error) {
	var models []ProductModel
	if err := r.getDB(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询商品列表失败")
	}
	products := make([]*product.Product, len(models))
	for i := range models {
		products[i] = toProductEntity(&models[i])
	}
	return products, nil
}

// IncrementReserved 预留(原子操作)
// UPDATE products SET reserved = reserved + ? WHERE id = ? AND (max_sold IS NULL OR sold + reserved + ? <= max_sold)
func (r *productRepository) IncrementReserved(ctx context.Context, id uint, units int) error {
	db := r.getDB(ctx)
	result := db.Model(&ProductModel{}).
		Where("id = ?", id).
		Where(capacityCondition, units).
		Update("reserved", gorm.Expr("reserved + ?", units))
	if result.Error != nil {
		return r.counterError(result.Error, "预留库存失败")
	}
	if result.RowsAffected == 0 {
		return r.explainRejection(ctx, id, units)
	}
	return nil
}

// IncrementSold 确认售出(原子操作)
func (r *productRepository) IncrementSold(ctx context.Context, id uint, units int, fromReserved bool) error {
	db := r.getDB(ctx)
	var result *gorm.DB
	if fromReserved {
		// 预留转已售:sold与reserved同时变化,容量占用不变
		result = db.Model(&ProductModel{}).
			Where("id = ?", id).
			Where("reserved >= ?", units).
			Updates(map[string]interface{}{
				"sold":     gorm.Expr("sold + ?", units),
				"reserved": gorm.Expr("reserved - ?", units),
			})
	} else {
		// 全新占用:与预留走同一个容量检查
		result = db.Model(&ProductModel{}).
			Where("id = ?", id).
			Where(capacityCondition, units).
			Update("sold", gorm.Expr("sold + ?", units))
	}
	if result.Error != nil {
		return r.counterError(result.Error, "确认售出失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if fromReserved {
		p, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return product.ErrReservationShortfall.WithMessagef("商品%s预留%d件,需要转为已售%d件", p.Key, p.Reserved, units)
	}
	return r.explainRejection(ctx, id, units)
}

// SetCounters 管理员校正计数器
func (r *productRepository) SetCounters(ctx context.Context, id uint, sold, reserved int) error {
	db := r.getDB(ctx)
	result := db.Model(&ProductModel{}).
		Where("id = ?", id).
		Where("(max_sold IS NULL OR ? + ? <= max_sold)", sold, reserved).
		Updates(map[string]interface{}{
			"sold":     sold,
			"reserved": reserved,
		})
	if result.Error != nil {
		return r.counterError(result.Error, "校正库存失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	p, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	// MySQL对值未变化的行返回0
	if p.Sold == sold && p.Reserved == reserved {
		return nil
	}
	return product.ErrInvalidCounters
}

// explainRejection 条件UPDATE没有命中时,再查一次确定原因
func (r *productRepository) explainRejection(ctx context.Context, id uint, units int) error {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	a := p.Available()
	return product.ErrCapacityExceeded.WithMessagef("商品%s剩余%d件,需要%d件", p.Key, a.Units, units)
}

func (r *productRepository) counterError(err error, message string) error {
	if isLockTimeout(err) {
		return apperrors.ErrConflictingUpdate.WithCause(err)
	}
	return apperrors.Wrap(err, message)
}

func (r *productRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toProductModel(p *product.Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Key:         p.Key,
		Title:       p.Title,
		Description: p.Description,
		Cost:        p.Cost,
		MaxSold:     p.MaxSold,
		Sold:        p.Sold,
		Reserved:    p.Reserved,
		SellStart:   p.SellStart,
		SellEnd:     p.SellEnd,
		MembersOnly: p.MembersOnly,
	}
}

func toProductEntity(m *ProductModel) *product.Product {
	return &product.Product{
		ID:          m.ID,
		Key:         m.Key,
		Title:       m.Title,
		Description: m.Description,
		Cost:        m.Cost,
		MaxSold:     m.MaxSold,
		Sold:        m.Sold,
		Reserved:    m.Reserved,
		SellStart:   m.SellStart,
		SellEnd:     m.SellEnd,
		MembersOnly: m.MembersOnly,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
