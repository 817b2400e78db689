// Package errs carries machine-readable codes and structured context on
// errors so that log lines can report them as fields.
package errs

import (
	"fmt"

	"github.com/samber/oops"
	"go.uber.org/zap"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeDeliveryStatus    Code = "delivery.status"
	CodeDeliveryTransport Code = "delivery.transport"
	CodeDeliveryEncode    Code = "delivery.encode"

	CodeQueueRead   Code = "queue.read"
	CodeQueueWrite  Code = "queue.write"
	CodeQueueDecode Code = "queue.decode"

	CodeConfigRead    Code = "config.read"
	CodeConfigInvalid Code = "config.invalid"

	CodeLockUnsupported Code = "lock.unsupported"
	CodeLockFailure     Code = "lock.failure"

	CodeNotifyFailure Code = "notify.failure"
	CodeStoreFailure  Code = "store.failure"
)

// Attr is a structured key/value attached to an error.
type Attr struct {
	Key   string
	Value any
}

func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

// Wrap returns nil for a nil err.
func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oe, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch c := oe.Code().(type) {
	case Code:
		return c
	case string:
		return Code(c)
	default:
		return Code(fmt.Sprintf("%v", c))
	}
}

func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}
	oe, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oe.Context()
}

// Zap renders err with its code and context for a log line.
func Zap(err error) []zap.Field {
	out := []zap.Field{zap.Error(err)}
	if code := CodeOf(err); code != "" {
		out = append(out, zap.String("code", string(code)))
	}
	if ctx := FieldsOf(err); len(ctx) > 0 {
		out = append(out, zap.Any("error_context", ctx))
	}
	return out
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		pairs = append(pairs, f.Key, f.Value)
	}
	return pairs
}
