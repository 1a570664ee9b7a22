package provider

import (
	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/notifier"
	"github.com/huoyun-next/internal/queue"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/service"
	"github.com/huoyun-next/internal/store"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	Store       store.Store
	QueueClient *queue.Client
	Hub         *notifier.Hub
	Notifier    notifier.Notifier

	// Repositories
	UserRepo         repository.UserRepository
	TransporterRepo  repository.TransporterRepository
	VehicleRepo      repository.VehicleRepository
	DriverRepo       repository.DriverRepository
	OrderRepo        repository.OrderRepository
	TruckRequestRepo repository.TruckRequestRepository
	AssignmentRepo   repository.AssignmentRepository

	// Services
	AuthService         *service.AuthService
	PresenceService     *service.PresenceService
	CandidateService    *service.CandidateService
	AvailabilityService *service.AvailabilityService
	DispatchService     *service.DispatchService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化共享协调存储：多实例部署必须启用 Redis，单机可退回进程内实现
	var sharedStore store.Store
	if cfg.Redis.Enabled {
		sharedStore = store.NewRedisStore(&cfg.Redis)
	} else {
		logger.Warnw("provider_redis_disabled", "fallback", "memory_store")
		sharedStore = store.NewMemoryStore()
	}

	// 初始化队列客户端（未启用时返回空壳客户端，入队调用静默跳过）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	// 初始化实时通知：WebSocket 集线器 + 尽力而为的外部推送
	hub := notifier.NewHub()
	push := notifier.NewPushSink(sharedStore, nil, &cfg.Push)

	c := &Container{
		Config:      cfg,
		Store:       sharedStore,
		QueueClient: queueClient,
		Hub:         hub,
		Notifier:    notifier.Fanout{hub, push},
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.TransporterRepo = repository.NewTransporterRepository(db)
	c.VehicleRepo = repository.NewVehicleRepository(db)
	c.DriverRepo = repository.NewDriverRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.TruckRequestRepo = repository.NewTruckRequestRepository(db)
	c.AssignmentRepo = repository.NewAssignmentRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config)
	c.PresenceService = service.NewPresenceService(c.Store, c.TransporterRepo, &c.Config.Presence)
	c.CandidateService = service.NewCandidateService(c.Store, c.TransporterRepo, &c.Config.Presence)
	c.AvailabilityService = service.NewAvailabilityService(
		c.Store,
		c.TransporterRepo,
		c.VehicleRepo,
		c.PresenceService,
		c.CandidateService,
		c.Notifier,
		&c.Config.Security.ToggleLimit,
	)
	c.DispatchService = service.NewDispatchService(
		models.DB,
		c.Store,
		c.OrderRepo,
		c.TruckRequestRepo,
		c.AssignmentRepo,
		c.UserRepo,
		c.TransporterRepo,
		c.VehicleRepo,
		c.DriverRepo,
		c.CandidateService,
		c.PresenceService,
		c.Notifier,
		c.QueueClient,
		service.DefaultVehicleCatalog(),
		&c.Config.Dispatch,
	)
}
