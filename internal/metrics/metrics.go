// Package metrics holds the Prometheus collectors for the auth service.
// Collectors register with the default registry on package init and are
// served from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "neven"

// TokensIssuedTotal counts signed session tokens.
// Label role: "admin" or "customer".
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "tokens_issued_total",
		Help:      "Total number of session tokens issued.",
	},
	[]string{"role"},
)

// TokenVerificationsTotal counts token checks by result ("valid", "invalid", "revoked").
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "token_verifications_total",
		Help:      "Total number of session token verifications by result.",
	},
	[]string{"result"},
)

var OTPIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "otp",
		Name:      "issued_total",
		Help:      "Total number of one-time codes issued.",
	},
)

// OTPVerificationsTotal counts OTP checks.
// Label result: "ok", "not_found", "expired", "mismatch", "locked", "bypass".
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "otp",
		Name:      "verifications_total",
		Help:      "Total number of one-time code verifications by result.",
	},
	[]string{"result"},
)

// SMSDispatchTotal counts SMS sends by sender and outcome.
var SMSDispatchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sms",
		Name:      "dispatch_total",
		Help:      "Total number of OTP SMS dispatch attempts.",
	},
	[]string{"sender", "outcome"},
)
