package payment

import (
	"context"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// 支付网关返回的状态
const (
	GatewayWaiting   = "WAITING"
	GatewayPaid      = "PAID"
	GatewayCancelled = "CANCELLED"
	GatewayExpired   = "EXPIRED"
)

// MapGatewayStatus 把网关状态映射为订单状态
// 只认识四种取值，其余一律返回ErrUnknownPaymentStatus，不做任何状态转换
func MapGatewayStatus(status string) (order.Status, error) {
	switch status {
	case GatewayWaiting:
		return order.StatusPending, nil
	case GatewayPaid:
		return order.StatusPaid, nil
	case GatewayCancelled:
		return order.StatusCancelled, nil
	case GatewayExpired:
		return order.StatusExpired, nil
	default:
		return "", apperrors.ErrUnknownPaymentStatus.WithMessagef("未知的支付状态: %q", status)
	}
}

// SessionRequest 创建支付会话的请求体
// ProductKeys按件展开：买2件同一商品就出现2次
type SessionRequest struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Method           string   `json:"method"`
	ReturnURL        string   `json:"returnUrl"`
	MailConfirmation bool     `json:"mailConfirmation"`
	ProductKeys      []string `json:"productKeys"`
}

// Session 网关创建的支付会话
type Session struct {
	PublicReference string // 网关侧订单号，对应Order.ExternalPaymentReference
	URL             string // 顾客跳转支付的地址
}

// Gateway 支付网关
// 实现方负责把网络错误、非预期状态码映射为ErrPaymentGateway，
// 把缺少字段的成功响应映射为ErrPaymentGatewayInvalidResponse
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	FetchStatus(ctx context.Context, paymentReference string) (string, error)
}

// BuildSessionRequest 根据订单和顾客构造请求体
func BuildSessionRequest(o *order.Order, name, email, clientURI string) SessionRequest {
	keys := make([]string, 0, o.TotalUnits())
	for _, p := range o.Products {
		for i := 0; i < p.Quantity; i++ {
			keys = append(keys, p.ProductKey)
		}
	}
	return SessionRequest{
		Name:             name,
		Email:            email,
		Method:           string(o.PaymentMethod),
		ReturnURL:        clientURI + "/checkout/" + o.PublicReference + "/payment/return",
		MailConfirmation: false,
		ProductKeys:      keys,
	}
}
