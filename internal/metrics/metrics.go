// Package metrics defines the custom Prometheus metrics of the ticketing
// API. All metrics are registered with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ticketflow"

// LoginTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", "locked", "inactive", "error"
var LoginTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "login_total",
		Help:      "Login attempts by outcome.",
	},
	[]string{"outcome"},
)

// LockoutsTotal counts accounts that crossed the failed-attempt threshold.
var LockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "lockouts_total",
		Help:      "Accounts locked after repeated failed logins.",
	},
)

// AuthzDenialsTotal counts requests refused by the authorization layer.
// Label:
//   - reason: "unauthenticated", "role", "ownership", "self_modification"
var AuthzDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "authz",
		Name:      "denials_total",
		Help:      "Requests denied by authorization checks, by reason.",
	},
	[]string{"reason"},
)

// ReservationsTotal counts reservation attempts.
// Label:
//   - outcome: "allocated", "quota_exceeded", "per_user_cap_exceeded", "not_found", "error"
var ReservationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "reservations_total",
		Help:      "Reservation attempts by outcome.",
	},
	[]string{"outcome"},
)

// UnitsAllocatedTotal counts ticket units sold.
var UnitsAllocatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "units_allocated_total",
		Help:      "Ticket units allocated by successful reservations.",
	},
)
