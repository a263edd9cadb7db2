package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// EndWithStatus records the status code an operation produced and ends the span.
func EndWithStatus(span trace.Span, statusCode int, err error) {
	span.SetAttributes(attribute.Int(StatusCodeKey, statusCode))

	if err != nil {
		SetError(span, err, attribute.Int(StatusCodeKey, statusCode))
	}

	span.End()
}
