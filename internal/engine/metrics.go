package engine

import "expvar"

var (
	sessionsStarted      = expvar.NewInt("sessions_started_total")
	sessionsEnded        = expvar.NewInt("sessions_ended_total")
	turnTimeouts         = expvar.NewInt("turn_timeouts_total")
	presentationFailures = expvar.NewInt("presentation_failures_total")
	invitesExpired       = expvar.NewInt("invites_expired_total")
)
