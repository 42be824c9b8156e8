package sender

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// DeliveryClass classifies a failed Discord call.
type DeliveryClass string

const (
	ClassForbidden   DeliveryClass = "forbidden"
	ClassNotFound    DeliveryClass = "not_found"
	ClassRateLimited DeliveryClass = "rate_limited"
	ClassUnavailable DeliveryClass = "discord_unavailable"
	ClassUnknown     DeliveryClass = "unknown"
)

// DeliveryError is a classified delivery failure.
type DeliveryError struct {
	Operation  string
	StatusCode int
	Class      DeliveryClass
	Temporary  bool
	Cause      error
}

func (e *DeliveryError) Error() string {
	if e == nil {
		return "delivery error"
	}

	statusLabel := "status unknown"
	if e.StatusCode > 0 {
		statusLabel = fmt.Sprintf("status %d", e.StatusCode)
	}

	var base string
	switch e.Class {
	case ClassForbidden:
		base = fmt.Sprintf("%s denied (%s: missing permission)", e.Operation, statusLabel)
	case ClassNotFound:
		base = fmt.Sprintf("%s failed (%s: not found)", e.Operation, statusLabel)
	case ClassRateLimited:
		base = fmt.Sprintf("%s failed (%s: rate limited; temporary)", e.Operation, statusLabel)
	case ClassUnavailable:
		base = fmt.Sprintf("%s failed (%s: Discord API unavailable; temporary)", e.Operation, statusLabel)
	default:
		base = fmt.Sprintf("%s failed (%s)", e.Operation, statusLabel)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *DeliveryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Classify wraps err in a DeliveryError. Nil stays nil.
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	var existing *DeliveryError
	if errors.As(err, &existing) {
		return err
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		status := restErr.Response.StatusCode
		de := &DeliveryError{Operation: operation, StatusCode: status, Class: ClassUnknown, Cause: err}
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			de.Class = ClassForbidden
		case status == http.StatusNotFound:
			de.Class = ClassNotFound
		case status == http.StatusTooManyRequests:
			de.Class, de.Temporary = ClassRateLimited, true
		case status >= 500 && status < 600:
			de.Class, de.Temporary = ClassUnavailable, true
		}
		return de
	}
	if strings.Contains(strings.ToLower(err.Error()), "rate limit") {
		return &DeliveryError{Operation: operation, StatusCode: http.StatusTooManyRequests, Class: ClassRateLimited, Temporary: true, Cause: err}
	}
	return &DeliveryError{Operation: operation, Class: ClassUnknown, Cause: err}
}

// ClassOf returns the class of err, or ClassUnknown.
func ClassOf(err error) DeliveryClass {
	var de *DeliveryError
	if errors.As(Classify("", err), &de) {
		return de.Class
	}
	return ClassUnknown
}

// IsForbidden reports whether err is a permission failure.
func IsForbidden(err error) bool {
	return err != nil && ClassOf(err) == ClassForbidden
}
