package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrTimeout marks a request abandoned because its deadline passed.
	ErrTimeout = errors.New("request timed out")
	// ErrNetwork marks a transport failure before any HTTP status was received.
	ErrNetwork = errors.New("network failure")
	// ErrRejected is returned when the API answers 2xx with success=false.
	ErrRejected = errors.New("request rejected")
)

// StatusError reports an HTTP status >= 400.
type StatusError struct {
	Code int
	Path string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// IsUnauthorized reports whether err carries an HTTP 401.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnauthorized
}

// IsTimeout reports whether err is a client-side timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork) {
		return err
	}
	var se *StatusError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

func retryable(err error) bool {
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return false
}
