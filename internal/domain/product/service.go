package product

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service 库存领域服务
// 设计说明:
// 1. Reserve/ConfirmSale是订单引擎修改库存的唯一入口
// 2. 不依赖具体的Repository实现(依赖倒置)
type Service interface {
	// Publish 新建商品(管理员)
	Publish(ctx context.Context, params PublishParams) (*Product, error)

	// GetByKey 根据对外Key获取商品
	GetByKey(ctx context.Context, key string) (*Product, error)

	// Reserve 预留units件,超出容量返回ErrCapacityExceeded
	Reserve(ctx context.Context, productID uint, units int) error

	// ConfirmSale 确认售出units件
	// fromReserved表示这些件数此前已为同一订单预留
	ConfirmSale(ctx context.Context, productID uint, units int, fromReserved bool) error

	// ListAvailable 在售且仍有余量的商品
	ListAvailable(ctx context.Context, now time.Time) ([]*Product, error)

	// CorrectCounters 管理员校正已售/预留数量
	CorrectCounters(ctx context.Context, key string, sold, reserved int) (*Product, error)
}

// PublishParams 新建商品参数
type PublishParams struct {
	Title       string
	Description string
	Cost        int64
	MaxSold     *int
	SellStart   *time.Time
	SellEnd     *time.Time
	MembersOnly bool
}

type service struct {
	repo Repository
}

// NewService 创建库存领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Publish(ctx context.Context, params PublishParams) (*Product, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.Cost < 0 {
		return nil, ErrInvalidCost
	}
	if params.MaxSold != nil && *params.MaxSold < 0 {
		return nil, ErrInvalidCapacity
	}
	if params.SellStart != nil && params.SellEnd != nil && params.SellStart.After(*params.SellEnd) {
		return nil, ErrInvalidSalesWindow
	}

	p := &Product{
		Key:         uuid.NewString(),
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Cost:        params.Cost,
		MaxSold:     params.MaxSold,
		SellStart:   params.SellStart,
		SellEnd:     params.SellEnd,
		MembersOnly: params.MembersOnly,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetByKey(ctx context.Context, key string) (*Product, error) {
	return s.repo.FindByKey(ctx, key)
}

func (s *service) Reserve(ctx context.Context, productID uint, units int) error {
	if units <= 0 {
		return ErrInvalidUnits
	}
	return s.repo.IncrementReserved(ctx, productID, units)
}

func (s *service) ConfirmSale(ctx context.Context, productID uint, units int, fromReserved bool) error {
	if units <= 0 {
		return ErrInvalidUnits
	}
	return s.repo.IncrementSold(ctx, productID, units, fromReserved)
}

func (s *service) ListAvailable(ctx context.Context, now time.Time) ([]*Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]*Product, 0, len(all))
	for _, p := range all {
		if p.OnSale(now) && !p.SoldOut() {
			available = append(available, p)
		}
	}
	return available, nil
}

func (s *service) CorrectCounters(ctx context.Context, key string, sold, reserved int) (*Product, error) {
	if sold < 0 || reserved < 0 {
		return nil, ErrInvalidCounters
	}
	p, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCounters(ctx, p.ID, sold, reserved); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, p.ID)
}
