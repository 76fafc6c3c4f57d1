// Package outcome provides the three-way result type returned by every
// asynchronous boundary call: Success, Error, or Loading.
package outcome

// UnknownError is the message used when neither an explicit message nor
// the cause provides one.
const UnknownError = "Unknown error"

// Kind identifies the active variant of an Outcome.
type Kind int

const (
	KindLoading Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "loading"
	}
}

// Outcome is an immutable tagged union. The zero value is Loading.
type Outcome[T any] struct {
	kind    Kind
	data    T
	cause   error
	message string
}

// Success wraps data.
func Success[T any](data T) Outcome[T] {
	return Outcome[T]{kind: KindSuccess, data: data}
}

// Fail wraps a failure cause. The display message is derived from cause.
func Fail[T any](cause error) Outcome[T] {
	return Outcome[T]{kind: KindError, cause: cause}
}

// FailWithMessage wraps a failure cause with a human-readable message.
// An empty message falls back to the cause.
func FailWithMessage[T any](cause error, message string) Outcome[T] {
	return Outcome[T]{kind: KindError, cause: cause, message: message}
}

// Loading returns the in-progress variant.
func Loading[T any]() Outcome[T] {
	return Outcome[T]{kind: KindLoading}
}

// Kind returns the active variant.
func (o Outcome[T]) Kind() Kind { return o.kind }

func (o Outcome[T]) IsSuccess() bool { return o.kind == KindSuccess }
func (o Outcome[T]) IsError() bool   { return o.kind == KindError }
func (o Outcome[T]) IsLoading() bool { return o.kind == KindLoading }

// Data returns the payload and true for Success; the zero value and false
// otherwise.
func (o Outcome[T]) Data() (T, bool) {
	if o.kind != KindSuccess {
		var zero T
		return zero, false
	}
	return o.data, true
}

// Cause returns the failure cause, or nil unless the outcome is Error.
func (o Outcome[T]) Cause() error {
	if o.kind != KindError {
		return nil
	}
	return o.cause
}

// Message returns a non-empty display message for Error outcomes: the
// explicit message, else the cause's text, else UnknownError. It returns ""
// for the other variants.
func (o Outcome[T]) Message() string {
	if o.kind != KindError {
		return ""
	}
	if o.message != "" {
		return o.message
	}
	if o.cause != nil {
		if msg := o.cause.Error(); msg != "" {
			return msg
		}
	}
	return UnknownError
}

// OnSuccess calls fn with the payload if the outcome is Success.
func (o Outcome[T]) OnSuccess(fn func(T)) Outcome[T] {
	if o.kind == KindSuccess {
		fn(o.data)
	}
	return o
}

// OnError calls fn with the cause and derived message if the outcome is Error.
func (o Outcome[T]) OnError(fn func(cause error, message string)) Outcome[T] {
	if o.kind == KindError {
		fn(o.cause, o.Message())
	}
	return o
}

// OnLoading calls fn if the outcome is Loading.
func (o Outcome[T]) OnLoading(fn func()) Outcome[T] {
	if o.kind == KindLoading {
		fn()
	}
	return o
}

// Map transforms a Success payload. Error and Loading pass through unchanged.
func Map[T, U any](o Outcome[T], fn func(T) U) Outcome[U] {
	switch o.kind {
	case KindSuccess:
		return Success(fn(o.data))
	case KindError:
		return Outcome[U]{kind: KindError, cause: o.cause, message: o.message}
	default:
		return Loading[U]()
	}
}
