package product

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/product"
	"github.com/xiebiao/eventtickets/internal/infrastructure/config"
	"github.com/xiebiao/eventtickets/internal/infrastructure/persistence/gormrepo"
)

func newTestService(t *testing.T) (product.Service, product.Repository) {
	t.Helper()
	db, err := gormrepo.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "product.db"),
	})
	require.NoError(t, err, "打开测试数据库失败")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	repo := gormrepo.NewProductRepository(db)
	return product.NewService(repo), repo
}

func intPtr(v int) *int { return &v }

func TestPublishProductUseCase(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	uc := NewPublishProductUseCase(svc)

	item, err := uc.Execute(ctx, PublishProductRequest{Title: "  周六场  ", Cost: 4500, MaxSold: intPtr(100)})
	require.NoError(t, err)
	assert.NotEmpty(t, item.Key)
	assert.Equal(t, "周六场", item.Title)
	require.NotNil(t, item.Available)
	assert.Equal(t, 100, *item.Available)

	tests := []struct {
		name string
		req  PublishProductRequest
		want error
	}{
		{"名称为空", PublishProductRequest{Cost: 100}, product.ErrTitleRequired},
		{"价格为负", PublishProductRequest{Title: "x", Cost: -1}, product.ErrInvalidCost},
		{"容量为负", PublishProductRequest{Title: "x", MaxSold: intPtr(-1)}, product.ErrInvalidCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListProductsUseCase(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	publish := NewPublishProductUseCase(svc)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open, err := publish.Execute(ctx, PublishProductRequest{Title: "在售", Cost: 100, SellStart: &past})
	require.NoError(t, err)
	_, err = publish.Execute(ctx, PublishProductRequest{Title: "未开售", Cost: 100, SellStart: &future})
	require.NoError(t, err)
	soldOut, err := publish.Execute(ctx, PublishProductRequest{Title: "售罄", Cost: 100, MaxSold: intPtr(1)})
	require.NoError(t, err)

	p, err := repo.FindByKey(ctx, soldOut.Key)
	require.NoError(t, err)
	require.NoError(t, repo.IncrementReserved(ctx, p.ID, 1))

	uc := NewListProductsUseCase(svc)
	uc.now = func() time.Time { return now }

	items, err := uc.Execute(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1, "只返回销售窗口内且有余量的商品")
	assert.Equal(t, open.Key, items[0].Key)
	assert.Nil(t, items[0].Available, "不限量")
}

func TestAdjustCountersUseCase(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	p, err := NewPublishProductUseCase(svc).Execute(ctx, PublishProductRequest{Title: "校正", Cost: 100, MaxSold: intPtr(5)})
	require.NoError(t, err)

	uc := NewAdjustCountersUseCase(svc, zap.NewNop())

	item, err := uc.Execute(ctx, AdjustCountersRequest{Key: p.Key, Sold: 3, Reserved: 2, AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, item.Sold)
	assert.Equal(t, 2, item.Reserved)
	assert.Equal(t, 0, *item.Available)

	_, err = uc.Execute(ctx, AdjustCountersRequest{Key: p.Key, Sold: 4, Reserved: 2})
	assert.ErrorIs(t, err, product.ErrInvalidCounters, "不能超过容量")

	_, err = uc.Execute(ctx, AdjustCountersRequest{Key: p.Key, Sold: -1})
	assert.ErrorIs(t, err, product.ErrInvalidCounters)

	_, err = uc.Execute(ctx, AdjustCountersRequest{Key: "missing"})
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}
