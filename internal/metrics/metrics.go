// Package metrics defines and registers the hub's custom Prometheus
// metrics. It is the single source of truth for metric names, labels, and
// help strings; promauto registers everything with the default registry at
// package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trackerhub"

// MessagesTotal counts inbound messages that completed the pipeline.
// Label:
//   - kind: "location", "sos" or "uwb_reading"
var MessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_messages_total",
		Help:      "Total number of telemetry messages ingested successfully.",
	},
	[]string{"kind"},
)

// RejectedTotal counts messages dropped by validation.
// Labels:
//   - kind: the classified message kind
//   - field: the offending payload field, or "payload" for unparseable JSON
var RejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_rejected_total",
		Help:      "Total number of telemetry messages dropped by validation.",
	},
	[]string{"kind", "field"},
)

// StoreErrorsTotal counts persistence failures. Messages are not retried.
// Label:
//   - table: the destination table of the failed write
var StoreErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Total number of failed store writes, labelled by table.",
	},
	[]string{"table"},
)

// UnknownTopicsTotal counts messages on unrecognized topics. Informational,
// not an error signal.
var UnknownTopicsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unknown_topics_total",
		Help:      "Total number of messages received on unrecognized topics.",
	},
)

// GeofenceChecksTotal counts geofence evaluations of location fixes.
// Label:
//   - result: "inside" or "outside"
var GeofenceChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geofence_checks_total",
		Help:      "Total number of geofence evaluations, labelled by result.",
	},
	[]string{"result"},
)

// NotificationsTotal counts persisted SOS notifications.
var NotificationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of SOS notification records written.",
	},
)
