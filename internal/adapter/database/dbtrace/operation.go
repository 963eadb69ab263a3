// Package dbtrace wraps repository calls in telemetry spans.
package dbtrace

import (
	"context"
	"errors"
	"time"

	"tasklist/internal/core/domain"
	"tasklist/internal/core/port"
)

type Operation struct {
	Ctx       context.Context
	Span      port.Span
	start     time.Time
	name      string
	entity    string
	telemetry port.Telemetry
}

func Begin(ctx context.Context, telemetry port.Telemetry, system, name, entity string, attrs map[string]interface{}) *Operation {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	attrs["db.system"] = system

	ctx, span := telemetry.StartRepositorySpan(ctx, name, entity, attrs)

	return &Operation{
		Ctx:       ctx,
		Span:      span,
		start:     time.Now(),
		name:      name,
		entity:    entity,
		telemetry: telemetry,
	}
}

// End records the outcome. Not-found is an expected answer, not a failure.
func (o *Operation) End(err error) {
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		o.Span.SetStatus("error", err.Error())
		o.Span.RecordError(err)
		o.telemetry.RecordRepositoryOperation(o.Ctx, o.name, o.entity, time.Since(o.start), err)
	} else {
		o.Span.SetStatus("ok", "")
		o.telemetry.RecordRepositoryOperation(o.Ctx, o.name, o.entity, time.Since(o.start), nil)
	}

	o.Span.End()
}

func (o *Operation) Query(query string, args []interface{}) {
	o.telemetry.RecordRepositoryQuery(o.Ctx, o.name, o.entity, query, args)
}
