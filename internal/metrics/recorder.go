// Package metrics provides optional instrumentation for catalog requests,
// favorites mutations and search supersession.
//
// Components default to NoopRecorder and take a real Recorder through an
// option, so nothing needs nil checks:
//
//	client := catalog.NewClient(key, catalog.WithRecorder(metrics.NewPrometheusRecorder(reg)))
package metrics

import (
	"context"
	"errors"
	"time"
)

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultError    ResultLabel = "error"
	ResultCanceled ResultLabel = "canceled"
)

// Result classifies err for labelling.
func Result(err error) ResultLabel {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, context.Canceled):
		return ResultCanceled
	default:
		return ResultError
	}
}

// Recorder receives observability hooks. Implementations must be safe for
// concurrent use.
type Recorder interface {
	GatewayRequest(operation string, err error, d time.Duration)
	FavoriteMutation(operation string, err error)
	SearchSuperseded()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) GatewayRequest(string, error, time.Duration) {}
func (NoopRecorder) FavoriteMutation(string, error)              {}
func (NoopRecorder) SearchSuperseded()                           {}
