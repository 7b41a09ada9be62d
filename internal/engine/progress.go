package engine

import "fmt"

// ProgressUpdate is the tuple the driver and optimizer report at batch
// boundaries, scenario boundaries, and bisection probes (spec §6 entry
// point 5). TaskID lets a caller multiplex several concurrent runs
// through one sink.
type ProgressUpdate struct {
	TaskID  string
	Step    string
	Percent float64
	Message string
	Done    bool
}

// ProgressSink is a consumer-provided observer. The core never retains
// it past the call and never blocks on it (spec §5 "the callback must
// be non-blocking").
type ProgressSink interface {
	Report(update ProgressUpdate)
}

func reportBatch(sink ProgressSink, taskID string, completed, total int) {
	if sink == nil {
		return
	}
	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	sink.Report(ProgressUpdate{
		TaskID:  taskID,
		Step:    "monte_carlo_batch",
		Percent: percent,
		Done:    completed >= total,
	})
}

// reportScenario reports the end of one accumulation-or-decumulation
// scenario run inside an optimizer probe (spec §6 entry point 5: "end
// of each scenario").
func reportScenario(sink ProgressSink, taskID, label string) {
	if sink == nil {
		return
	}
	sink.Report(ProgressUpdate{
		TaskID:  taskID,
		Step:    "optimizer_scenario",
		Message: label,
	})
}

// reportProbe reports the end of one bisection probe inside
// OptimizeSavings (spec §6 entry point 5: "end of each bisection
// probe"). estimatedTotal is a rough upper bound on probe count used
// only to shape a monotonic percent, since the true bisection depth
// isn't known in advance.
func reportProbe(sink ProgressSink, taskID string, probeIndex, estimatedTotal int, scale float64, done bool) {
	if sink == nil {
		return
	}
	percent := 0.0
	if estimatedTotal > 0 {
		percent = float64(probeIndex) / float64(estimatedTotal) * 100
		if percent > 100 {
			percent = 100
		}
	}
	sink.Report(ProgressUpdate{
		TaskID:  taskID,
		Step:    "optimizer_probe",
		Percent: percent,
		Message: fmt.Sprintf("evaluated contribution scale %.4f", scale),
		Done:    done,
	})
}
