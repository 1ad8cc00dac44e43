package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{1, 10, 100}),
			WithConstLabels(map[string]string{"env": "test"}),
			WithPrometheusRegistry(registry),
		)

		Convey("Solves are counted by engine, algorithm and status", func() {
			m.RecordSolve("knapsack", "dp", "ok", 3)
			m.RecordSolve("knapsack", "dp", "ok", 4)
			m.RecordSolve("route", "2opt", "invalid_input", 1)

			So(testutil.ToFloat64(m.solves.WithLabelValues("knapsack", "dp", "ok")), ShouldEqual, 2)
			So(testutil.ToFloat64(m.solves.WithLabelValues("route", "2opt", "invalid_input")), ShouldEqual, 1)
		})

		Convey("The objective gauge keeps the latest value", func() {
			m.RecordObjective("lineup", "ilp", 120.5)
			m.RecordObjective("lineup", "ilp", 99)
			So(testutil.ToFloat64(m.solveObjective.WithLabelValues("lineup", "ilp")), ShouldEqual, 99)
		})

		Convey("Queue gauges derive utilization", func() {
			m.UpdateQueue(5, 20)
			So(testutil.ToFloat64(m.queueSize), ShouldEqual, 5)
			So(testutil.ToFloat64(m.queueCapacity), ShouldEqual, 20)
			So(testutil.ToFloat64(m.queueUtilization), ShouldEqual, 0.25)

			m.RecordQueueRejected("full")
			So(testutil.ToFloat64(m.queueRejected.WithLabelValues("full")), ShouldEqual, 1)
		})

		Convey("Worker gauges split active and idle", func() {
			m.UpdateWorkers(4, 1)
			So(testutil.ToFloat64(m.workerActiveCount), ShouldEqual, 1)
			So(testutil.ToFloat64(m.workerIdleCount), ShouldEqual, 3)

			m.RecordWorkerJob(2, true)
			m.RecordWorkerJob(2, false)
			So(testutil.ToFloat64(m.workerErrors), ShouldEqual, 1)
		})

		Convey("Everything is registered under the namespace", func() {
			m.RecordHTTPRequest("/api/packing/compare", "POST", "200", 12)
			m.RecordSolverNodes(17)
			m.RecordComparison("knapsack", 12.5)
			m.RecordErrorByComponent("api", "invalid_input")

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			names := map[string]bool{}
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["test_unit_http_requests_total"], ShouldBeTrue)
			So(names["test_unit_ilp_nodes"], ShouldBeTrue)
			So(names["test_unit_comparison_improvement_pct"], ShouldBeTrue)
			So(names["test_unit_errors_by_component_total"], ShouldBeTrue)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Package-level helpers write to the served registry", t, func() {
		RecordSolve("knapsack", "greedy", "ok", 1)
		UpdateQueue(0, 10)
		UpdateWorkers(2, 0)
		UpdateSystem(1024, 8)
		RecordSystemGCPauseTime(0.2)
		RecordJobSkipped()
		RecordQueueEnqueue()
		RecordQueueDequeue(0.5)

		So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 10)
		So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 8)

		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)
		So(len(families), ShouldBeGreaterThan, 0)
	})
}
