package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Count is the number of live state objects, incremented on creation and copy
// and decremented when the garbage collector finalizes one.
var Count = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "beacon_state_count",
	Help: "Count the number of active beacon state objects.",
})
