//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"hr-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideSQSClient,
	ProvideEventBridgeClient,
	ProvideCache,
	ProvideTTLPolicy,
	ProvideTTLSource,
	ProvideInvalidator,
	ProvideConnection,
	ProvideQueue,
	ProvidePublisher,
	ProvideIdempotencyStore,
	ProvideMailer,
	ProvideProducer,
	ProvideRegistry,
	ProvideConsumer,
	provideEntityDeps,
	ProvideUserService,
	ProvideDepartmentService,
	ProvideSalaryService,
	ProvideAttendanceService,
	ProvideJWTService,
	ProvideErrorHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
