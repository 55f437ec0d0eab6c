package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestProduct_Available(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    Availability
	}{
		{"不限量", Product{Sold: 100}, Availability{Unlimited: true}},
		{"有余量", Product{MaxSold: intPtr(10), Sold: 3, Reserved: 2}, Availability{Units: 5}},
		{"售罄", Product{MaxSold: intPtr(2), Sold: 1, Reserved: 1}, Availability{Units: 0}},
		{"校正后超出也不返回负数", Product{MaxSold: intPtr(1), Sold: 2}, Availability{Units: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.Available())
		})
	}
}

func TestProduct_HasCapacityFor(t *testing.T) {
	p := Product{MaxSold: intPtr(5), Sold: 2, Reserved: 2}
	assert.True(t, p.HasCapacityFor(1))
	assert.False(t, p.HasCapacityFor(2))

	unlimited := Product{}
	assert.True(t, unlimited.HasCapacityFor(1000))
}

func TestProduct_OnSale(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	assert.True(t, (&Product{}).OnSale(now), "没有窗口限制")
	assert.True(t, (&Product{SellStart: &before, SellEnd: &after}).OnSale(now))
	assert.False(t, (&Product{SellStart: &after}).OnSale(now), "尚未开售")
	assert.False(t, (&Product{SellEnd: &before}).OnSale(now), "已停售")
}

func TestProduct_Progress(t *testing.T) {
	assert.Equal(t, 25.0, (&Product{MaxSold: intPtr(8), Sold: 2}).Progress())
	assert.Equal(t, 0.0, (&Product{Sold: 2}).Progress())
}
