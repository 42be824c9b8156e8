package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// ErrorCategory represents different types of errors in the system
type ErrorCategory string

const (
	CategoryService    ErrorCategory = "service"
	CategoryDiscord    ErrorCategory = "discord"
	CategoryStorage    ErrorCategory = "storage"
	CategoryConfig     ErrorCategory = "config"
	CategoryCommand    ErrorCategory = "command"
	CategoryValidation ErrorCategory = "validation"
	CategoryNetwork    ErrorCategory = "network"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity represents the severity level of errors
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityHigh     ErrorSeverity = "high"
	SeverityCritical ErrorSeverity = "critical"
)

// ServiceError represents a standardized error in the system
type ServiceError struct {
	Category    ErrorCategory  `json:"category"`
	Severity    ErrorSeverity  `json:"severity"`
	Message     string         `json:"message"`
	Operation   string         `json:"operation"`
	Component   string         `json:"component"`
	Cause       error          `json:"-"`
	Context     map[string]any `json:"context,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Recoverable bool           `json:"recoverable"`
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s in %s.%s: %v", e.Category, e.Severity, e.Message, e.Component, e.Operation, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s in %s.%s", e.Category, e.Severity, e.Message, e.Component, e.Operation)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error with the specified parameters
func NewServiceError(category ErrorCategory, severity ErrorSeverity, component, operation, message string, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Severity:    severity,
		Message:     message,
		Operation:   operation,
		Component:   component,
		Cause:       cause,
		Timestamp:   time.Now(),
		Recoverable: true,
		Context:     make(map[string]any),
	}
}

// RetryStrategy defines retry behavior for one error category
type RetryStrategy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// ErrorHandler logs errors by severity and retries recoverable operations
// with a per-category backoff.
type ErrorHandler struct {
	retryStrategies map[ErrorCategory]RetryStrategy
	sleep           func(ctx context.Context, d time.Duration) error
}

// NewErrorHandler creates a handler with the default retry strategies.
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		retryStrategies: map[ErrorCategory]RetryStrategy{
			CategoryDiscord: {MaxAttempts: 3, BaseDelay: 1 * time.Second, MaxDelay: 10 * time.Second, Multiplier: 2.0},
			CategoryNetwork: {MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 30 * time.Second, Multiplier: 2.0},
			CategoryStorage: {MaxAttempts: 4, BaseDelay: 1 * time.Second, MaxDelay: 15 * time.Second, Multiplier: 2.0},
			CategoryService: {MaxAttempts: 2, BaseDelay: 2 * time.Second, MaxDelay: 20 * time.Second, Multiplier: 3.0},
		},
		sleep: sleepContext,
	}
}

// SetRetryStrategy overrides the strategy of one category.
func (eh *ErrorHandler) SetRetryStrategy(category ErrorCategory, s RetryStrategy) {
	eh.retryStrategies[category] = s
}

// Handle normalizes err, logs it and returns the normalized error.
func (eh *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	serviceErr := eh.normalizeError(err)
	eh.logError(serviceErr)
	return serviceErr
}

// WithRetry runs fn until it succeeds, fails with a non-recoverable error, or
// the category's attempts are used up. The final error is handled and returned.
func (eh *ErrorHandler) WithRetry(ctx context.Context, category ErrorCategory, component, operation string, fn func(ctx context.Context) error) error {
	strategy, ok := eh.retryStrategies[category]
	if !ok || strategy.MaxAttempts < 1 {
		strategy = RetryStrategy{MaxAttempts: 1}
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		serviceErr := eh.normalizeError(err)
		serviceErr.Category = category
		serviceErr.Component = component
		serviceErr.Operation = operation
		serviceErr.Context["attempt"] = attempt

		if !serviceErr.Recoverable || attempt >= strategy.MaxAttempts {
			return eh.Handle(serviceErr)
		}

		delay := calculateDelay(strategy, attempt)
		log.ApplicationLogger().Warn("Operation failed, retrying", "attempt", attempt, "delay", delay, "component", component, "operation", operation, "err", err)
		if err := eh.sleep(ctx, delay); err != nil {
			return eh.Handle(NewServiceError(category, SeverityHigh, component, operation, "retry cancelled", stderrors.Join(err, serviceErr)))
		}
	}
}

// DiscordError wraps a Discord API failure with severity taken from the
// HTTP status.
func DiscordError(component, operation string, err error) *ServiceError {
	se := NewServiceError(CategoryDiscord, SeverityMedium, component, operation, "Discord API operation failed", err)
	var restErr *discordgo.RESTError
	if stderrors.As(err, &restErr) && restErr.Response != nil {
		status := restErr.Response.StatusCode
		se.Context["status"] = status
		if restErr.Message != nil {
			se.Context["discord_code"] = restErr.Message.Code
			se.Context["discord_message"] = restErr.Message.Message
		}
		se.Severity = discordSeverity(status)
		se.Recoverable = status == http.StatusTooManyRequests || status >= 500
	}
	return se
}

func discordSeverity(status int) ErrorSeverity {
	switch {
	case status == http.StatusTooManyRequests:
		return SeverityMedium
	case status >= 500:
		return SeverityCritical
	case status >= 400:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// normalizeError converts any error into a ServiceError
func (eh *ErrorHandler) normalizeError(err error) *ServiceError {
	var serviceErr *ServiceError
	if stderrors.As(err, &serviceErr) {
		if serviceErr.Context == nil {
			serviceErr.Context = make(map[string]any)
		}
		return serviceErr
	}
	var restErr *discordgo.RESTError
	if stderrors.As(err, &restErr) {
		return DiscordError("unknown", "unknown", err)
	}

	category := categorizeError(err)
	return &ServiceError{
		Category:    category,
		Severity:    severityForCategory(category),
		Message:     err.Error(),
		Operation:   "unknown",
		Component:   "unknown",
		Cause:       err,
		Timestamp:   time.Now(),
		Recoverable: isErrorRecoverable(err),
		Context:     make(map[string]any),
	}
}

// categorizeError attempts to categorize an error based on its message
func categorizeError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "discord") || strings.Contains(errStr, "gateway"):
		return CategoryDiscord
	case strings.Contains(errStr, "mongo") || strings.Contains(errStr, "sqlite") || strings.Contains(errStr, "store"):
		return CategoryStorage
	case strings.Contains(errStr, "config") || strings.Contains(errStr, "environment"):
		return CategoryConfig
	case strings.Contains(errStr, "command") || strings.Contains(errStr, "interaction"):
		return CategoryCommand
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout"):
		return CategoryNetwork
	case strings.Contains(errStr, "validation") || strings.Contains(errStr, "invalid"):
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

func (eh *ErrorHandler) logError(err *ServiceError) {
	args := []any{
		"category", err.Category,
		"severity", err.Severity,
		"component", err.Component,
		"operation", err.Operation,
		"recoverable", err.Recoverable,
	}
	for k, v := range err.Context {
		args = append(args, k, v)
	}
	if err.Cause != nil {
		args = append(args, "err", err.Cause)
	}

	switch err.Severity {
	case SeverityLow, SeverityMedium:
		log.ApplicationLogger().Info(err.Message, args...)
	case SeverityHigh:
		log.ApplicationLogger().Warn(err.Message, args...)
	default:
		log.ErrorLoggerRaw().Error(err.Message, args...)
	}
}

func isErrorRecoverable(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"permission denied", "unauthorized", "not found", "invalid token", "authentication failed"} {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}
	return true
}

func severityForCategory(category ErrorCategory) ErrorSeverity {
	switch category {
	case CategoryService, CategoryStorage:
		return SeverityHigh
	case CategoryValidation:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

func calculateDelay(strategy RetryStrategy, attempt int) time.Duration {
	delay := float64(strategy.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= strategy.Multiplier
	}
	if d := time.Duration(delay); d < strategy.MaxDelay || strategy.MaxDelay == 0 {
		return d
	}
	return strategy.MaxDelay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
