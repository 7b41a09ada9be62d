package engine

import "testing"

func TestReportBatchNilSinkIsNoop(t *testing.T) {
	// must not panic
	reportBatch(nil, "task", 10, 100)
}

func TestReportBatchComputesPercent(t *testing.T) {
	sink := &recordingSink{}
	reportBatch(sink, "task-1", 25, 100)

	if len(sink.updates) != 1 {
		t.Fatalf("expected exactly one update, got %d", len(sink.updates))
	}
	u := sink.updates[0]
	if u.Percent != 25 {
		t.Fatalf("percent = %v, want 25", u.Percent)
	}
	if u.Done {
		t.Fatalf("should not be done at 25/100")
	}
}

func TestReportBatchMarksDoneAtCompletion(t *testing.T) {
	sink := &recordingSink{}
	reportBatch(sink, "task-1", 100, 100)

	if !sink.updates[0].Done {
		t.Fatalf("expected done=true when completed >= total")
	}
	if sink.updates[0].Percent != 100 {
		t.Fatalf("percent = %v, want 100", sink.updates[0].Percent)
	}
}

func TestReportBatchZeroTotalYieldsZeroPercent(t *testing.T) {
	sink := &recordingSink{}
	reportBatch(sink, "task-1", 0, 0)

	if sink.updates[0].Percent != 0 {
		t.Fatalf("percent = %v, want 0 when total is 0", sink.updates[0].Percent)
	}
}
