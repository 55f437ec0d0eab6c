package customer

import (
	"context"
)

// Directory 顾客目录(只读)
type Directory interface {
	FindByID(ctx context.Context, id uint) (*Customer, error)
}
