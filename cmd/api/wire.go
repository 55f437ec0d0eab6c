//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire在编译期生成依赖创建代码，零运行时开销
// 2. 运行 `wire gen ./cmd/api` 生成wire_gen.go
// 3. 生成后可以用InitializeApp替换main.go里的newApp
//
// 接口绑定：
// 应用层只依赖端口接口（TxManager、Locker、SessionCache...）
// 这里用wire.Bind把基础设施实现绑定到接口上
package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/eventtickets/internal/application/order"
	appproduct "github.com/xiebiao/eventtickets/internal/application/product"
	appticket "github.com/xiebiao/eventtickets/internal/application/ticket"
	"github.com/xiebiao/eventtickets/internal/domain/customer"
	"github.com/xiebiao/eventtickets/internal/domain/product"
	"github.com/xiebiao/eventtickets/internal/domain/ticket"
	"github.com/xiebiao/eventtickets/internal/infrastructure/config"
	"github.com/xiebiao/eventtickets/internal/infrastructure/persistence/gormrepo"
	"github.com/xiebiao/eventtickets/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/eventtickets/internal/interface/http/handler"
	"github.com/xiebiao/eventtickets/internal/interface/http/middleware"
)

// infrastructureSet 数据库、Redis、网关、消息
var infrastructureSet = wire.NewSet(
	gormrepo.NewDB,
	redis.NewClient,
	redis.NewSessionStore,
	provideOrderLocker,
	provideGateway,
	provideJWTManager,
	provideNotifier,
	provideEventPublisher,
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	gormrepo.NewOrderRepository,
	gormrepo.NewProductRepository,
	gormrepo.NewTicketRepository,
	gormrepo.NewCustomerDirectory,
	gormrepo.NewTxManager,
	wire.Bind(new(appticket.TxManager), new(*gormrepo.TxManager)),
	wire.Bind(new(customer.Directory), new(*gormrepo.CustomerDirectory)),
)

// domainSet 库存服务与出票器
var domainSet = wire.NewSet(
	product.NewService,
	ticket.NewIssuer,
)

// applicationSet 订单引擎、对账、用例
var applicationSet = wire.NewSet(
	provideEngine,
	provideReconciler,
	apporder.NewCreateOrderUseCase,
	apporder.NewUpdateOrderUseCase,
	apporder.NewQueryService,
	appproduct.NewPublishProductUseCase,
	appproduct.NewListProductsUseCase,
	appproduct.NewAdjustCountersUseCase,
	appticket.NewTransferTicketUseCase,
	appticket.NewListCustomerTicketsUseCase,
)

// handlerSet 中间件、处理器、路由
var handlerSet = wire.NewSet(
	middleware.NewAuthMiddleware,
	handler.NewOrderHandler,
	handler.NewProductHandler,
	handler.NewTicketHandler,
	handler.NewPaymentHandler,
	wire.Struct(new(handler.Handlers), "*"),
	provideRouter,
)

// InitializeApp 初始化整个应用
// 返回Gin引擎和清理函数（关闭RabbitMQ/Kafka连接）
//
// 依赖链示例：
// *gin.Engine → *handler.Handlers → *handler.PaymentHandler
// → *apppayment.Reconciler → *apporder.Engine → order.Repository → *gorm.DB
func InitializeApp(cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		handlerSet,
	)
	return nil, nil, nil
}
