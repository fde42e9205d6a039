package vm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	definedVMsGauge prometheus.Gauge
	onlineVMsGauge  prometheus.Gauge
)

func SetupVMMetrics() {
	definedVMsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hydrogend",
		Subsystem: "vms",
		Name:      "defined",
		Help:      "Total number of VMs known on this host",
	})

	onlineVMsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hydrogend",
		Subsystem: "vms",
		Name:      "online",
		Help:      "Number of online VMs",
	})
}

// updateMetrics must be called with List.Mu held.
func updateMetrics() {
	if definedVMsGauge == nil || onlineVMsGauge == nil {
		return
	}

	var online int

	for _, aVM := range List.VMList {
		if aVM.Online {
			online++
		}
	}

	definedVMsGauge.Set(float64(len(List.VMList)))
	onlineVMsGauge.Set(float64(online))
}
