package statistics

import (
	"github.com/brightless/brightless/internal/controller"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	controllers cmap.ConcurrentMap[string, controller.MonitorController]

	writeCount      *prometheus.Desc
	writeErrorCount *prometheus.Desc
	restoreCount    *prometheus.Desc
	scheduleTarget  *prometheus.Desc
}

func NewControllerCollector(controllers cmap.ConcurrentMap[string, controller.MonitorController]) *ControllerCollector {
	return &ControllerCollector{
		controllers: controllers,
		writeCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "write_count"),
			"Counter for values written to the monitor by this controller",
			[]string{"id"}, nil,
		),
		writeErrorCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "write_error_count"),
			"Counter for failed writes to the monitor",
			[]string{"id"}, nil,
		),
		restoreCount: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "restore_count"),
			"Counter for state restorations applied to the monitor",
			[]string{"id"}, nil,
		),
		scheduleTarget: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "schedule_target"),
			"Current schedule target brightness in percent, -1 when schedule control is inactive",
			[]string{"id"}, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.writeCount
	ch <- collector.writeErrorCount
	ch <- collector.restoreCount
	ch <- collector.scheduleTarget
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	for _, contr := range collector.controllers.Items() {
		monitorId := contr.GetMonitor().GetId()
		snapshot := contr.Snapshot()

		ch <- prometheus.MustNewConstMetric(collector.writeCount, prometheus.CounterValue, float64(snapshot.Writes), monitorId)
		ch <- prometheus.MustNewConstMetric(collector.writeErrorCount, prometheus.CounterValue, float64(snapshot.WriteErrors), monitorId)
		ch <- prometheus.MustNewConstMetric(collector.restoreCount, prometheus.CounterValue, float64(snapshot.Restores), monitorId)
		ch <- prometheus.MustNewConstMetric(collector.scheduleTarget, prometheus.GaugeValue, snapshot.ScheduleTarget, monitorId)
	}
}
