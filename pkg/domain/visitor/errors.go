package visitor

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidIP = errors.New("invalid IP address")

const (
	CallVerdict      = "verdict request"
	CallProxyContent = "proxy content fetch"
)

// RemoteServiceError is returned when the verdict service answers with an
// error envelope.
type RemoteServiceError struct {
	Messages []string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("verdict service error: %s", strings.Join(e.Messages, ", "))
}

type TransportError struct {
	Call string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Call, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewTransportError(call string, err error) error {
	return &TransportError{Call: call, Err: err}
}

func IsRemoteServiceError(err error) bool {
	var target *RemoteServiceError
	return errors.As(err, &target)
}

func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
