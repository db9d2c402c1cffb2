package saga

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sagaTracerName = "sagaflow.saga"

const (
	spanSagaExecute        = "saga.execute"
	spanSagaStep           = "saga.step.execute"
	spanSagaCompensate     = "saga.compensate"
	spanSagaStepCompensate = "saga.step.compensate"
	spanSagaResume         = "saga.resume"
)

func sagaTracer() trace.Tracer {
	return otel.Tracer(sagaTracerName)
}
