package api

import (
	"context"

	"github.com/boilerevents/boiler-events/app/events"
	"github.com/boilerevents/boiler-events/app/pipeline"
)

type PipelineRunner interface {
	Run(ctx context.Context, audience events.Audience) ([]events.NormalizedEvent, error)
}

var _ PipelineRunner = (*pipeline.Pipeline)(nil)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	pipeline PipelineRunner
	health   HealthChecker
	version  string
}
