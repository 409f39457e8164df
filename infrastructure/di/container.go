package di

import (
	"go.uber.org/zap"

	"hr-backend/application/caching"
	"hr-backend/application/notifications"
	"hr-backend/application/ports"
	"hr-backend/infrastructure/config"
	"hr-backend/infrastructure/messaging"
	"hr-backend/interfaces/http/rest"
	"hr-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *observability.Collector
	Tracer      *observability.TracerProvider
	Cache       ports.Cache
	TTLPolicy   *config.TTLPolicy
	Invalidator *caching.Invalidator
	Connection  messaging.Connection
	Queue       ports.Queue
	Producer    *notifications.Producer
	Consumer    *notifications.Consumer
	Users       *UserService
	Departments *DepartmentService
	Salaries    *SalaryService
	Attendances *AttendanceService
	Router      *rest.Router
}
