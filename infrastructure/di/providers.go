package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"hr-backend/application/caching"
	"hr-backend/application/notifications"
	"hr-backend/application/ports"
	"hr-backend/application/services"
	"hr-backend/domain/core/entities"
	"hr-backend/domain/events"
	"hr-backend/infrastructure/cache"
	"hr-backend/infrastructure/config"
	"hr-backend/infrastructure/mail"
	"hr-backend/infrastructure/messaging"
	"hr-backend/infrastructure/messaging/eventbridge"
	memqueue "hr-backend/infrastructure/messaging/memory"
	"hr-backend/infrastructure/messaging/sqs"
	"hr-backend/infrastructure/persistence/dynamodb"
	"hr-backend/infrastructure/persistence/memory"
	"hr-backend/interfaces/http/rest"
	"hr-backend/interfaces/http/rest/handlers"
	"hr-backend/pkg/auth"
	apperrors "hr-backend/pkg/errors"
	"hr-backend/pkg/observability"
)

// Service type aliases keep provider signatures readable.
type (
	UserService       = services.EntityService[*entities.User]
	DepartmentService = services.EntityService[*entities.Department]
	SalaryService     = services.EntityService[*entities.Salary]
	AttendanceService = services.EntityService[*entities.Attendance]
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Environment, cfg.LogLevel)
}

// ProvideMetrics returns nil when metrics are disabled; every recorder
// accepts a nil collector.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("hr")
}

// ProvideTracing installs the OTLP exporter when tracing is enabled.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "hr-backend",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  1.0,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))
	return tp, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}, nil
}

// ProvideAWSConfig creates AWS configuration. No request is made here.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

func ProvideSQSClient(awsCfg aws.Config) *awssqs.Client {
	return awssqs.NewFromConfig(awsCfg)
}

func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCache opens the store named by CACHE_URL.
func ProvideCache(cfg *config.Config, logger *zap.Logger) (ports.Cache, func(), error) {
	store, closer, err := cache.Open(cfg.CacheURL, cfg.CacheKeyPrefix, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := closer.Close(); err != nil {
			logger.Warn("Cache close failed", zap.Error(err))
		}
	}, nil
}

// ProvideTTLPolicy builds the TTL policy and, when a policy file is
// configured, keeps it in sync with the file.
func ProvideTTLPolicy(cfg *config.Config, logger *zap.Logger) (*config.TTLPolicy, func(), error) {
	policy := config.NewTTLPolicy(cfg.CacheTTL)
	if cfg.CachePolicyFile == "" {
		return policy, func() {}, nil
	}
	watcher, err := config.NewPolicyWatcher(cfg.CachePolicyFile, policy, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.Start()
	return policy, watcher.Stop, nil
}

func ProvideTTLSource(policy *config.TTLPolicy) caching.TTLSource {
	return policy
}

func ProvideInvalidator(c ports.Cache, logger *zap.Logger, metrics *observability.Collector) *caching.Invalidator {
	return caching.NewInvalidator(c, logger, metrics)
}

func ProvideConnection(cfg *config.Config) (messaging.Connection, error) {
	return messaging.ParseConnection(cfg.QueueConnection)
}

// ProvideQueue selects the notification transport.
func ProvideQueue(
	conn messaging.Connection,
	cfg *config.Config,
	sqsClient *awssqs.Client,
	ebClient *awseventbridge.Client,
	logger *zap.Logger,
) ports.Queue {
	logger = logger.With(zap.String("transport", string(conn.Transport)))
	switch conn.Transport {
	case messaging.TransportSQS:
		logger.Info("Notifications use SQS", zap.String("queue_url", conn.Target))
		return sqs.NewQueue(sqsClient, sqs.Config{
			QueueURL:          conn.Target,
			VisibilityTimeout: cfg.VisibilityTimeout,
			RetryDelay:        cfg.RetryDelay,
			WaitTime:          cfg.PollInterval,
		}, logger)
	case messaging.TransportEventBridge:
		logger.Info("Notifications use EventBridge", zap.String("bus", conn.Target))
		return messaging.PublishOnly{Publisher: eventbridge.NewPublisher(ebClient, conn.Target, logger)}
	case messaging.TransportMemory:
		logger.Info("Notifications use the in-process queue")
		q := memqueue.NewQueue(cfg.VisibilityTimeout, cfg.RetryDelay)
		q.SetMaxAttempts(cfg.MaxAttempts)
		return q
	default:
		logger.Warn("QUEUE_CONNECTION not set, notifications disabled")
		return messaging.Disabled{}
	}
}

func ProvidePublisher(q ports.Queue) ports.Publisher {
	return q
}

func ProvideIdempotencyStore(cfg *config.Config, client *awsdynamodb.Client) ports.IdempotencyStore {
	if cfg.RepositoryDriver == "dynamodb" {
		return dynamodb.NewIdempotencyStore(client, cfg.DynamoDBTable)
	}
	return memory.NewIdempotencyStore()
}

func ProvideMailer(logger *zap.Logger) ports.Mailer {
	return mail.NewLogMailer(logger)
}

func ProvideProducer(pub ports.Publisher, logger *zap.Logger, metrics *observability.Collector) *notifications.Producer {
	return notifications.NewProducer(pub, logger.Named("producer"), metrics)
}

// ProvideRegistry registers every notification handler.
func ProvideRegistry(cfg *config.Config, mailer ports.Mailer, claims ports.IdempotencyStore, logger *zap.Logger) (*notifications.Registry, error) {
	registry := notifications.NewRegistry(logger)
	if err := registry.Register(events.TypeUserCreated, notifications.NewWelcomeEmailHandler(mailer, claims, cfg.VisibilityTimeout, logger)); err != nil {
		return nil, err
	}
	return registry, nil
}

func ProvideConsumer(
	q ports.Queue,
	registry *notifications.Registry,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
) *notifications.Consumer {
	return notifications.NewConsumer(q, registry, cfg.PollInterval, logger.Named("consumer"), metrics)
}

// entityDeps are the collaborators shared by every entity service.
type entityDeps struct {
	cfg         *config.Config
	client      *awsdynamodb.Client
	cache       ports.Cache
	ttl         caching.TTLSource
	invalidator *caching.Invalidator
	logger      *zap.Logger
	metrics     *observability.Collector
}

func newRepository[T entities.Entity](d entityDeps, kind entities.Kind) ports.Repository[T] {
	if d.cfg.RepositoryDriver == "dynamodb" {
		return dynamodb.NewRepository[T](d.client, d.cfg.DynamoDBTable, kind, d.logger)
	}
	return memory.NewRepository[T](kind)
}

func newEntityService[T entities.Entity](d entityDeps, kind entities.Kind, newEmpty func() T, onCreate ...services.CreateHook[T]) *services.EntityService[T] {
	repo := newRepository[T](d, kind)
	reads := caching.NewReadThrough[T](kind, d.cache, repo, d.ttl, d.logger, d.metrics)
	writes := services.NewWritePipeline[T](kind, repo, d.invalidator, d.logger)
	for _, hook := range onCreate {
		writes.OnCreate(hook)
	}
	return services.NewEntityService[T](kind, repo, reads, writes, newEmpty, d.logger)
}

func provideEntityDeps(
	cfg *config.Config,
	client *awsdynamodb.Client,
	c ports.Cache,
	ttl caching.TTLSource,
	invalidator *caching.Invalidator,
	logger *zap.Logger,
	metrics *observability.Collector,
) entityDeps {
	return entityDeps{cfg: cfg, client: client, cache: c, ttl: ttl, invalidator: invalidator, logger: logger, metrics: metrics}
}

// ProvideUserService wires the welcome notification onto user creation.
func ProvideUserService(d entityDeps, producer *notifications.Producer) *UserService {
	return newEntityService(d, entities.KindUser, func() *entities.User { return &entities.User{} },
		services.CreateHook[*entities.User](producer.UserCreated))
}

func ProvideDepartmentService(d entityDeps) *DepartmentService {
	return newEntityService(d, entities.KindDepartment, func() *entities.Department { return &entities.Department{} })
}

func ProvideSalaryService(d entityDeps) *SalaryService {
	return newEntityService(d, entities.KindSalary, func() *entities.Salary { return &entities.Salary{} })
}

func ProvideAttendanceService(d entityDeps) *AttendanceService {
	return newEntityService(d, entities.KindAttendance, func() *entities.Attendance { return &entities.Attendance{} })
}

// ProvideJWTService returns nil when authentication is disabled.
func ProvideJWTService(cfg *config.Config) (*auth.JWTService, error) {
	if !cfg.EnableAuth {
		return nil, nil
	}
	svc, err := auth.NewJWTService(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	return svc, nil
}

func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter assembles the HTTP surface.
func ProvideRouter(
	cfg *config.Config,
	users *UserService,
	departments *DepartmentService,
	salaries *SalaryService,
	attendances *AttendanceService,
	invalidator *caching.Invalidator,
	c ports.Cache,
	jwt *auth.JWTService,
	metrics *observability.Collector,
	errs *apperrors.ErrorHandler,
	logger *zap.Logger,
) *rest.Router {
	resources := []handlers.Resource{
		handlers.NewEntityHandler[*entities.User](users, errs, logger),
		handlers.NewEntityHandler[*entities.Department](departments, errs, logger),
		handlers.NewEntityHandler[*entities.Salary](salaries, errs, logger),
		handlers.NewEntityHandler[*entities.Attendance](attendances, errs, logger),
	}

	var authH *handlers.AuthHandler
	if jwt != nil {
		authH = handlers.NewAuthHandler(jwt, users, errs, logger)
	}

	return rest.NewRouter(
		resources,
		authH,
		handlers.NewAdminHandler(invalidator, errs, logger),
		handlers.NewHealthHandler(c),
		jwt,
		metrics,
		errs,
		logger,
		rest.RouterOptions{EnableCORS: cfg.EnableCORS, AllowedOrigins: cfg.CORSAllowedOrigins},
	)
}
