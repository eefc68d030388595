package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartAndEndSpanRecordsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })

	_, ok := StartSpan(context.Background(), "token.verify", attribute.String("store", "database"))
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "token.verify")
	EndSpan(failed, errors.New("store down"))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "token.verify" || spans[0].Status().Code == codes.Error {
		t.Fatalf("unexpected first span: %s %v", spans[0].Name(), spans[0].Status())
	}
	if len(spans[0].Attributes()) != 1 || spans[0].Attributes()[0].Value.AsString() != "database" {
		t.Fatalf("expected store attribute, got %v", spans[0].Attributes())
	}
	if spans[1].Status().Code != codes.Error || spans[1].Status().Description != "store down" {
		t.Fatalf("expected error status, got %v", spans[1].Status())
	}
	if len(spans[1].Events()) == 0 {
		t.Fatal("expected recorded error event")
	}
}
