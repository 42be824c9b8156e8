package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/small-frappuccino/embedbuilder/pkg/errors"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// ServiceWrapper adapts plain start/stop/health functions to Service.
type ServiceWrapper struct {
	name         string
	serviceType  ServiceType
	priority     ServicePriority
	dependencies []string

	startFn  func(ctx context.Context) error
	stopFn   func(ctx context.Context) error
	healthFn func(ctx context.Context) HealthStatus

	mu        sync.RWMutex
	running   bool
	startTime time.Time
	lastError *errors.ServiceError

	logger *slog.Logger
}

// NewServiceWrapper creates a Service from functions. Any of the functions
// may be nil.
func NewServiceWrapper(
	name string,
	serviceType ServiceType,
	priority ServicePriority,
	dependencies []string,
	startFn func(ctx context.Context) error,
	stopFn func(ctx context.Context) error,
	healthFn func(ctx context.Context) HealthStatus,
) *ServiceWrapper {
	return &ServiceWrapper{
		name:         name,
		serviceType:  serviceType,
		priority:     priority,
		dependencies: dependencies,
		startFn:      startFn,
		stopFn:       stopFn,
		healthFn:     healthFn,
		logger:       log.ApplicationLogger().With("service", name),
	}
}

func (sw *ServiceWrapper) Name() string              { return sw.name }
func (sw *ServiceWrapper) Type() ServiceType         { return sw.serviceType }
func (sw *ServiceWrapper) Priority() ServicePriority { return sw.priority }
func (sw *ServiceWrapper) Dependencies() []string    { return sw.dependencies }

// Start runs the start function once. A second call is a no-op.
func (sw *ServiceWrapper) Start(ctx context.Context) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		return nil
	}

	if sw.startFn != nil {
		if err := sw.startFn(ctx); err != nil {
			sw.lastError = errors.NewServiceError(errors.CategoryService, errors.SeverityHigh, sw.name, "start", "Service start hook failed", err)
			sw.logger.Error("Service start failed", "error", err)
			return sw.lastError
		}
	}
	sw.running = true
	sw.startTime = time.Now()
	return nil
}

// Stop runs the stop function. Failures are recorded and returned but the
// service is marked stopped either way.
func (sw *ServiceWrapper) Stop(ctx context.Context) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if !sw.running {
		return nil
	}
	sw.running = false

	if sw.stopFn != nil {
		if err := sw.stopFn(ctx); err != nil {
			sw.lastError = errors.NewServiceError(errors.CategoryService, errors.SeverityMedium, sw.name, "stop", "Service stop hook failed", err)
			sw.logger.Warn("Service stop failed", "error", err)
			return sw.lastError
		}
	}
	return nil
}

func (sw *ServiceWrapper) IsRunning() bool {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.running
}

// HealthCheck reports the custom health, or whether the service is running.
func (sw *ServiceWrapper) HealthCheck(ctx context.Context) HealthStatus {
	if sw.healthFn != nil {
		return sw.healthFn(ctx)
	}
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	status := HealthStatus{Healthy: sw.running, LastCheck: time.Now(), Message: "stopped"}
	if sw.running {
		status.Message = "running"
		status.Details = map[string]any{"uptime": time.Since(sw.startTime).Round(time.Second).String()}
	}
	return status
}

// LastError returns the most recent start or stop failure.
func (sw *ServiceWrapper) LastError() *errors.ServiceError {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.lastError
}
