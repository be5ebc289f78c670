package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAcceptLabelsAndIncrement(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/contracts", "GET", "200"))
	HTTPRequestsTotal.WithLabelValues("/contracts", "GET", "200").Inc()
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/contracts", "GET", "200"))
	if after != before+1 {
		t.Errorf("expected counter to increment by 1, before=%v after=%v", before, after)
	}
}

func TestContractsProcessedTotalLabels(t *testing.T) {
	ContractsProcessedTotal.WithLabelValues("completed").Inc()
	ContractsProcessedTotal.WithLabelValues("failed").Inc()
	if testutil.ToFloat64(ContractsProcessedTotal.WithLabelValues("completed")) < 1 {
		t.Error("expected at least one completed contract recorded")
	}
}

func TestOCRPageFailuresTotalIsACounter(t *testing.T) {
	before := testutil.ToFloat64(OCRPageFailuresTotal)
	OCRPageFailuresTotal.Add(2)
	after := testutil.ToFloat64(OCRPageFailuresTotal)
	if after != before+2 {
		t.Errorf("expected counter to increase by 2, before=%v after=%v", before, after)
	}
}
