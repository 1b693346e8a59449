package connectors

import (
	"errors"
	"fmt"
	"time"
)

// ErrSilenced — алерт не доставлен, потому что ресурс заглушен оператором.
// Для хендлера это не отказ, а частичный результат.
var ErrSilenced = errors.New("resource is silenced")

type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}
