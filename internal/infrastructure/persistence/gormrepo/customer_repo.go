package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/eventtickets/internal/domain/customer"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// CustomerDirectory 顾客目录的本地副本
// 业务代码只通过customer.Directory读取,Create供同步任务和测试写入
type CustomerDirectory struct {
	db *gorm.DB
}

// NewCustomerDirectory 创建顾客目录
func NewCustomerDirectory(db *gorm.DB) *CustomerDirectory {
	return &CustomerDirectory{db: db}
}

func (d *CustomerDirectory) FindByID(ctx context.Context, id uint) (*customer.Customer, error) {
	var model CustomerModel
	if err := dbFromContext(ctx, d.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(err, "查询顾客失败")
	}
	return &customer.Customer{
		ID:             model.ID,
		Name:           model.Name,
		Email:          model.Email,
		VerifiedMember: model.VerifiedMember,
		Admin:          model.Admin,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}, nil
}

// Create 写入一条顾客记录
func (d *CustomerDirectory) Create(ctx context.Context, c *customer.Customer) error {
	model := &CustomerModel{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		VerifiedMember: c.VerifiedMember,
		Admin:          c.Admin,
	}
	if err := dbFromContext(ctx, d.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.New(apperrors.ErrCodeDuplicateEntry, "邮箱已存在")
		}
		return apperrors.Wrap(err, "创建顾客失败")
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}
