package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/small-frappuccino/embedbuilder/pkg/errors"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// ServiceState represents the current state of a service
type ServiceState string

const (
	StateUninitialized ServiceState = "uninitialized"
	StateInitializing  ServiceState = "initializing"
	StateRunning       ServiceState = "running"
	StateStopping      ServiceState = "stopping"
	StateStopped       ServiceState = "stopped"
	StateError         ServiceState = "error"
)

// ServiceType groups services for logging.
type ServiceType string

const (
	TypeStorage  ServiceType = "storage"
	TypeCommands ServiceType = "commands"
	TypeSessions ServiceType = "sessions"
	TypeViews    ServiceType = "views"
)

// ServicePriority orders independent services (higher starts first).
type ServicePriority int

const (
	PriorityLow    ServicePriority = 1
	PriorityNormal ServicePriority = 5
	PriorityHigh   ServicePriority = 10
)

// HealthStatus represents the health of a service
type HealthStatus struct {
	Healthy   bool           `json:"healthy"`
	Message   string         `json:"message"`
	LastCheck time.Time      `json:"last_check"`
	Details   map[string]any `json:"details,omitempty"`
}

// Service defines the lifecycle every managed component implements.
type Service interface {
	Name() string
	Type() ServiceType
	Priority() ServicePriority
	Dependencies() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	HealthCheck(ctx context.Context) HealthStatus
}

// ServiceInfo holds metadata about a registered service
type ServiceInfo struct {
	Service       Service              `json:"-"`
	State         ServiceState         `json:"state"`
	LastStateTime time.Time            `json:"last_state_time"`
	ErrorCount    int                  `json:"error_count"`
	LastError     *errors.ServiceError `json:"last_error,omitempty"`
}

// ServiceManager starts services in dependency order and stops them in reverse.
type ServiceManager struct {
	mu           sync.RWMutex
	services     map[string]*ServiceInfo
	started      []string
	errorHandler *errors.ErrorHandler

	startTimeout    time.Duration
	shutdownTimeout time.Duration
}

// NewServiceManager creates a new service manager
func NewServiceManager(errorHandler *errors.ErrorHandler) *ServiceManager {
	if errorHandler == nil {
		errorHandler = errors.NewErrorHandler()
	}
	return &ServiceManager{
		services:        make(map[string]*ServiceInfo),
		errorHandler:    errorHandler,
		startTimeout:    30 * time.Second,
		shutdownTimeout: 30 * time.Second,
	}
}

// Register adds a service to the manager
func (sm *ServiceManager) Register(service Service) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	name := service.Name()
	if _, exists := sm.services[name]; exists {
		return fmt.Errorf("service '%s' is already registered", name)
	}
	sm.services[name] = &ServiceInfo{Service: service, State: StateUninitialized, LastStateTime: time.Now()}

	log.ApplicationLogger().Info("Service registered", "service", name, "type", service.Type(), "priority", service.Priority(), "dependencies", service.Dependencies())
	return nil
}

// StartAll starts every service in dependency order. On the first failure the
// services already started are stopped again.
func (sm *ServiceManager) StartAll(ctx context.Context) error {
	order, err := sm.calculateStartOrder()
	if err != nil {
		return fmt.Errorf("failed to calculate start order: %w", err)
	}

	for _, name := range order {
		if err := sm.startService(ctx, name); err != nil {
			_ = sm.StopAll(context.Background())
			return fmt.Errorf("failed to start service '%s': %w", name, err)
		}
	}
	log.ApplicationLogger().Info("All services started", "services_count", len(order))
	return nil
}

func (sm *ServiceManager) startService(ctx context.Context, name string) error {
	sm.mu.Lock()
	info := sm.services[name]
	info.State, info.LastStateTime = StateInitializing, time.Now()
	sm.mu.Unlock()

	startCtx, cancel := context.WithTimeout(ctx, sm.startTimeout)
	defer cancel()
	err := info.Service.Start(startCtx)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	info.LastStateTime = time.Now()
	if err != nil {
		info.State = StateError
		info.ErrorCount++
		info.LastError = errors.NewServiceError(errors.CategoryService, errors.SeverityHigh, name, "start", "Service failed to start", err)
		_ = sm.errorHandler.Handle(info.LastError)
		return err
	}
	info.State = StateRunning
	sm.started = append(sm.started, name)
	return nil
}

// StopAll stops the started services in reverse start order.
func (sm *ServiceManager) StopAll(ctx context.Context) error {
	sm.mu.Lock()
	started := sm.started
	sm.started = nil
	sm.mu.Unlock()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		name := started[i]
		sm.mu.Lock()
		info := sm.services[name]
		info.State, info.LastStateTime = StateStopping, time.Now()
		sm.mu.Unlock()

		stopCtx, cancel := context.WithTimeout(ctx, sm.shutdownTimeout)
		err := info.Service.Stop(stopCtx)
		cancel()

		sm.mu.Lock()
		info.State, info.LastStateTime = StateStopped, time.Now()
		if err != nil {
			info.ErrorCount++
			info.LastError = errors.NewServiceError(errors.CategoryService, errors.SeverityMedium, name, "stop", "Service failed to stop cleanly", err)
			errs = append(errs, fmt.Errorf("stop service '%s': %w", name, err))
		}
		sm.mu.Unlock()
	}

	if err := stderrors.Join(errs...); err != nil {
		log.ErrorLoggerRaw().Error("Some services failed to stop cleanly", "error", err)
		return err
	}
	log.ApplicationLogger().Info("All services stopped")
	return nil
}

// GetServiceInfo returns a copy of the metadata of one service.
func (sm *ServiceManager) GetServiceInfo(name string) (ServiceInfo, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	info, ok := sm.services[name]
	if !ok {
		return ServiceInfo{}, fmt.Errorf("service '%s' not found", name)
	}
	return *info, nil
}

// HealthReport runs every running service's health check.
func (sm *ServiceManager) HealthReport(ctx context.Context) map[string]HealthStatus {
	sm.mu.RLock()
	var running []Service
	for _, info := range sm.services {
		if info.State == StateRunning {
			running = append(running, info.Service)
		}
	}
	sm.mu.RUnlock()

	out := make(map[string]HealthStatus, len(running))
	for _, s := range running {
		out[s.Name()] = s.HealthCheck(ctx)
	}
	return out
}

// calculateStartOrder sorts services topologically. Independent services are
// visited by descending priority, then name.
func (sm *ServiceManager) calculateStartOrder() ([]string, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	names := make([]string, 0, len(sm.services))
	for name := range sm.services {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := sm.services[names[i]].Service.Priority(), sm.services[names[j]].Service.Priority()
		if pi != pj {
			return pi > pj
		}
		return names[i] < names[j]
	})

	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(name string) error {
		if temp[name] {
			return fmt.Errorf("circular dependency detected involving service '%s'", name)
		}
		if visited[name] {
			return nil
		}
		temp[name] = true
		for _, dep := range sm.services[name].Service.Dependencies() {
			if _, exists := sm.services[dep]; !exists {
				return fmt.Errorf("service '%s' depends on unknown service '%s'", name, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		temp[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
