package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/eventtickets/internal/application/order"
	apppayment "github.com/xiebiao/eventtickets/internal/application/payment"
	appproduct "github.com/xiebiao/eventtickets/internal/application/product"
	appticket "github.com/xiebiao/eventtickets/internal/application/ticket"
	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/product"
	"github.com/xiebiao/eventtickets/internal/domain/ticket"
	"github.com/xiebiao/eventtickets/internal/infrastructure/config"
	"github.com/xiebiao/eventtickets/internal/infrastructure/gateway"
	"github.com/xiebiao/eventtickets/internal/infrastructure/messaging"
	"github.com/xiebiao/eventtickets/internal/infrastructure/persistence/gormrepo"
	"github.com/xiebiao/eventtickets/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/eventtickets/internal/interface/http/handler"
	"github.com/xiebiao/eventtickets/internal/interface/http/middleware"
	"github.com/xiebiao/eventtickets/pkg/jwt"
	"github.com/xiebiao/eventtickets/pkg/mq"
)

// newApp 手动组装依赖
// 依赖链：Repository ← Domain Service ← Engine/UseCase ← Handler ← Router
// wire.go中的InitializeApp使用同一组Provider
func newApp(cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	// 基础设施层
	db, err := gormrepo.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	redisClient, err := redis.NewClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	notifier, closeNotifier := provideNotifier(cfg, logger)
	events, closeEvents := provideEventPublisher(cfg, logger)
	cleanup := func() {
		closeEvents()
		closeNotifier()
		_ = redisClient.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	orderRepo := gormrepo.NewOrderRepository(db)
	productRepo := gormrepo.NewProductRepository(db)
	ticketRepo := gormrepo.NewTicketRepository(db)
	customers := gormrepo.NewCustomerDirectory(db)
	txManager := gormrepo.NewTxManager(db)
	locker := provideOrderLocker(redisClient, cfg)
	sessions := redis.NewSessionStore(redisClient)
	gw := provideGateway(cfg, logger)
	jwtManager := provideJWTManager(cfg)

	// 领域层
	inventory := product.NewService(productRepo)
	issuer := ticket.NewIssuer(ticketRepo)

	// 应用层
	engine := provideEngine(orderRepo, inventory, issuer, txManager, notifier, events, logger)
	reconciler := provideReconciler(engine, orderRepo, gw, customers, locker, sessions, cfg, logger)

	orderHandler := handler.NewOrderHandler(
		apporder.NewCreateOrderUseCase(orderRepo, inventory, logger),
		apporder.NewUpdateOrderUseCase(engine, customers),
		apporder.NewQueryService(orderRepo, ticketRepo),
		engine,
	)
	handlers := &handler.Handlers{
		Orders: orderHandler,
		Products: handler.NewProductHandler(
			appproduct.NewPublishProductUseCase(inventory),
			appproduct.NewListProductsUseCase(inventory),
			appproduct.NewAdjustCountersUseCase(inventory, logger),
		),
		Tickets: handler.NewTicketHandler(
			appticket.NewTransferTicketUseCase(ticketRepo, issuer, productRepo, customers, txManager, logger),
			appticket.NewListCustomerTicketsUseCase(ticketRepo),
		),
		Payments: handler.NewPaymentHandler(reconciler, orderHandler),
	}

	// 接口层
	router := provideRouter(cfg, logger, handlers, middleware.NewAuthMiddleware(jwtManager))
	return router, cleanup, nil
}

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpire)
}

func provideOrderLocker(client *goredis.Client, cfg *config.Config) *redis.OrderLocker {
	return redis.NewOrderLocker(client, cfg.Redis)
}

func provideGateway(cfg *config.Config, logger *zap.Logger) *gateway.Client {
	return gateway.New(cfg.Payment, logger)
}

// provideNotifier RabbitMQ通知器
// 未启用或连接失败时返回nil，引擎退化为只记录日志
func provideNotifier(cfg *config.Config, logger *zap.Logger) (apporder.Notifier, func()) {
	if !cfg.RabbitMQ.Enabled {
		return nil, func() {}
	}
	pub, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, "topic", logger)
	if err != nil {
		logger.Warn("RabbitMQ不可用，订单通知已禁用", zap.Error(err))
		return nil, func() {}
	}
	return messaging.NewNotifier(pub, logger), func() { _ = pub.Close() }
}

// provideEventPublisher Kafka状态事件
func provideEventPublisher(cfg *config.Config, logger *zap.Logger) (apporder.EventPublisher, func()) {
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}
	}
	pub := messaging.NewEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	logger.Info("Kafka事件发布已启用", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	return pub, func() { _ = pub.Close() }
}

func provideEngine(
	orders order.Repository,
	inventory product.Service,
	issuer *ticket.Issuer,
	tx *gormrepo.TxManager,
	notifier apporder.Notifier,
	events apporder.EventPublisher,
	logger *zap.Logger,
) *apporder.Engine {
	return apporder.NewEngine(orders, inventory, issuer, tx, notifier, events, logger)
}

func provideReconciler(
	engine *apporder.Engine,
	orders order.Repository,
	gw *gateway.Client,
	customers *gormrepo.CustomerDirectory,
	locker *redis.OrderLocker,
	sessions *redis.SessionStore,
	cfg *config.Config,
	logger *zap.Logger,
) *apppayment.Reconciler {
	return apppayment.NewReconciler(engine, orders, gw, customers, locker, sessions, apppayment.Config{
		ClientURI:  cfg.Payment.ClientURI,
		SessionTTL: cfg.Payment.SessionTTL,
	}, logger)
}

// provideRouter 创建Gin引擎并注册路由
// 中间件顺序：Logger → Recovery → Metrics
func provideRouter(
	cfg *config.Config,
	logger *zap.Logger,
	handlers *handler.Handlers,
	auth *middleware.AuthMiddleware,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Logger(logger), gin.Recovery(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// 生产环境建议关闭Swagger或加访问控制
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handler.RegisterRoutes(r, handlers, auth)
	return r
}

// dsnSummary 启动日志里展示的数据库信息
func dsnSummary(cfg config.DatabaseConfig) string {
	if cfg.Driver == "sqlite" {
		return "sqlite:" + cfg.Path
	}
	return fmt.Sprintf("%s://%s:%d/%s", cfg.Driver, cfg.Host, cfg.Port, cfg.DBName)
}
