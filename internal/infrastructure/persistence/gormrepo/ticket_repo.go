package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/eventtickets/internal/domain/ticket"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// ticketRepository 门票仓储实现
type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository 创建门票仓储
func NewTicketRepository(db *gorm.DB) ticket.Repository {
	return &ticketRepository{db: db}
}

// CreateBatch 批量创建门票
// 检票码冲突时整批失败,由调用方决定是否重试
func (r *ticketRepository) CreateBatch(ctx context.Context, tickets []*ticket.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	models := make([]*TicketModel, len(tickets))
	for i, t := range tickets {
		models[i] = toTicketModel(t)
	}
	if err := r.getDB(ctx).Create(&models).Error; err != nil {
		if isDuplicateError(err) {
			return ticket.ErrDuplicateTicketCode.WithCause(err)
		}
		return apperrors.Wrap(err, "创建门票失败")
	}
	for i, m := range models {
		tickets[i].ID = m.ID
		tickets[i].CreatedAt = m.CreatedAt
	}
	return nil
}

func (r *ticketRepository) FindByKey(ctx context.Context, key string) (*ticket.Ticket, error) {
	var model TicketModel
	if err := r.getDB(ctx).Where("ticket_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, apperrors.Wrap(err, "查询门票失败")
	}
	return toTicketEntity(&model), nil
}

func (r *ticketRepository) ListByOrder(ctx context.Context, orderID uint) ([]*ticket.Ticket, error) {
	return r.list(ctx, "order_id = ?", orderID)
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID uint) ([]*ticket.Ticket, error) {
	return r.list(ctx, "owner_id = ? AND valid = ?", ownerID, true)
}

func (r *ticketRepository) CodeExists(ctx context.Context, productID uint, code string) (bool, error) {
	var count int64
	err := r.getDB(ctx).Model(&TicketModel{}).
		Where("product_id = ? AND unique_code = ?", productID, code).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "查询检票码失败")
	}
	return count > 0, nil
}

// Invalidate 作废门票(原子操作)
// UPDATE tickets SET valid = false WHERE id = ? AND valid = true AND status = 'OPEN'
func (r *ticketRepository) Invalidate(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	result := db.Model(&TicketModel{}).
		Where("id = ? AND valid = ? AND status = ?", id, true, string(ticket.StatusOpen)).
		Update("valid", false)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "作废门票失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&TicketModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询门票失败")
	}
	if count == 0 {
		return ticket.ErrTicketNotFound
	}
	return ticket.ErrNotTransferable
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...interface{}) ([]*ticket.Ticket, error) {
	var models []TicketModel
	if err := r.getDB(ctx).Where(query, args...).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询门票列表失败")
	}
	tickets := make([]*ticket.Ticket, len(models))
	for i := range models {
		tickets[i] = toTicketEntity(&models[i])
	}
	return tickets, nil
}

func (r *ticketRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

func toTicketModel(t *ticket.Ticket) *TicketModel {
	return &TicketModel{
		ID:         t.ID,
		Key:        t.Key,
		OrderID:    t.OrderID,
		OwnerID:    t.OwnerID,
		ProductID:  t.ProductID,
		UniqueCode: t.UniqueCode,
		Status:     string(t.Status),
		Valid:      t.Valid,
	}
}

func toTicketEntity(m *TicketModel) *ticket.Ticket {
	return &ticket.Ticket{
		ID:         m.ID,
		Key:        m.Key,
		OrderID:    m.OrderID,
		OwnerID:    m.OwnerID,
		ProductID:  m.ProductID,
		UniqueCode: m.UniqueCode,
		Status:     ticket.Status(m.Status),
		Valid:      m.Valid,
		CreatedAt:  m.CreatedAt,
	}
}
