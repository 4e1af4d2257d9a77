// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

// Package-level counters for account events. Services increment these
// through the Record* helpers without holding a Server instance.
var (
	authenticationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chimehook_authentications_total",
			Help: "Total number of authentication attempts by result",
		},
		[]string{"result"},
	)

	credentialUpgradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chimehook_credential_upgrades_total",
			Help: "Total number of legacy credentials re-hashed on login",
		},
	)

	resetsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chimehook_resets_issued_total",
			Help: "Total number of password reset tokens issued",
		},
	)

	resetsRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chimehook_resets_rate_limited_total",
			Help: "Total number of reset requests rejected by the rate limit",
		},
	)

	resetsRevokedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chimehook_resets_revoked_total",
			Help: "Total number of reset-token revocation sweeps",
		},
	)
)

// Authentication results recorded by RecordAuthentication.
const (
	AuthSuccess = "success"
	AuthFailure = "failure"
	AuthError   = "error"
)

// RecordAuthentication increments the authentication counter.
func RecordAuthentication(result string) {
	authenticationsTotal.WithLabelValues(result).Inc()
}

// RecordCredentialUpgrade increments the legacy-upgrade counter.
func RecordCredentialUpgrade() {
	credentialUpgradesTotal.Inc()
}

// RecordResetIssued increments the issued-token counter.
func RecordResetIssued() {
	resetsIssuedTotal.Inc()
}

// RecordResetRateLimited increments the rate-limited counter.
func RecordResetRateLimited() {
	resetsRateLimitedTotal.Inc()
}

// RecordResetRevoked increments the revocation counter.
func RecordResetRevoked() {
	resetsRevokedTotal.Inc()
}
