package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors for the signaling core, registered on the default registry.
var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "podlobby",
		Name:      "connections_active",
		Help:      "Open signaling connections.",
	})

	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "podlobby",
		Name:      "rooms_active",
		Help:      "Rooms currently holding at least one member.",
	})

	MessagesRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podlobby",
		Name:      "messages_routed_total",
		Help:      "Inbound frames dispatched to an operation, by message type.",
	}, []string{"type"})

	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podlobby",
		Name:      "messages_dropped_total",
		Help:      "Inbound frames discarded without a reply, by reason.",
	}, []string{"reason"})

	Deliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "podlobby",
		Name:      "deliveries_total",
		Help:      "Outbound frames enqueued to room members.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
