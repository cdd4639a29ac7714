package statistics

import (
	"github.com/brightless/brightless/internal/controller"
	"github.com/brightless/brightless/internal/vcp"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const monitorSubsystem = "monitor"

type MonitorCollector struct {
	controllers cmap.ConcurrentMap[string, controller.MonitorController]

	value       *prometheus.Desc
	inputSource *prometheus.Desc
	powerMode   *prometheus.Desc
	reachable   *prometheus.Desc
	latency     *prometheus.Desc
}

func NewMonitorCollector(controllers cmap.ConcurrentMap[string, controller.MonitorController]) *MonitorCollector {
	return &MonitorCollector{
		controllers: controllers,
		value: prometheus.NewDesc(prometheus.BuildFQName(namespace, monitorSubsystem, "value"),
			"Current value of a continuous feature of the monitor in percent",
			[]string{"id", "feature"}, nil,
		),
		inputSource: prometheus.NewDesc(prometheus.BuildFQName(namespace, monitorSubsystem, "input_source"),
			"Current input source code of the monitor",
			[]string{"id"}, nil,
		),
		powerMode: prometheus.NewDesc(prometheus.BuildFQName(namespace, monitorSubsystem, "power_mode"),
			"Current power mode code of the monitor",
			[]string{"id"}, nil,
		),
		reachable: prometheus.NewDesc(prometheus.BuildFQName(namespace, monitorSubsystem, "reachable"),
			"Whether the monitor currently answers on the DDC/CI bus",
			[]string{"id"}, nil,
		),
		latency: prometheus.NewDesc(prometheus.BuildFQName(namespace, monitorSubsystem, "ddc_request_duration_seconds"),
			"Average duration of recent DDC/CI value reads",
			[]string{"id"}, nil,
		),
	}
}

func (collector *MonitorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.value
	ch <- collector.inputSource
	ch <- collector.powerMode
	ch <- collector.reachable
	ch <- collector.latency
}

// Collect implements required collect function for all prometheus collectors.
// Values come from the controller snapshots, a scrape never touches the
// DDC bus itself.
func (collector *MonitorCollector) Collect(ch chan<- prometheus.Metric) {
	for _, contr := range collector.controllers.Items() {
		monitorId := contr.GetMonitor().GetId()
		snapshot := contr.Snapshot()

		sliders := map[vcp.Feature]int{
			vcp.FeatureBrightness: snapshot.State.Brightness,
			vcp.FeatureContrast:   snapshot.State.Contrast,
			vcp.FeatureVolume:     snapshot.State.Volume,
		}
		for feature, value := range sliders {
			if value < 0 {
				continue
			}
			ch <- prometheus.MustNewConstMetric(collector.value, prometheus.GaugeValue, float64(value), monitorId, feature.String())
		}

		if snapshot.State.InputSource != 0 {
			ch <- prometheus.MustNewConstMetric(collector.inputSource, prometheus.GaugeValue, float64(snapshot.State.InputSource), monitorId)
		}
		if snapshot.State.PowerMode != 0 {
			ch <- prometheus.MustNewConstMetric(collector.powerMode, prometheus.GaugeValue, float64(snapshot.State.PowerMode), monitorId)
		}

		reachable := 0.0
		if snapshot.Reachable {
			reachable = 1.0
		}
		ch <- prometheus.MustNewConstMetric(collector.reachable, prometheus.GaugeValue, reachable, monitorId)
		ch <- prometheus.MustNewConstMetric(collector.latency, prometheus.GaugeValue, snapshot.PollLatency, monitorId)
	}
}
