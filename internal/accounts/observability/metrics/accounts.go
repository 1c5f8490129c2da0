package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccountsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_created_total",
			Help: "Total number of user accounts created",
		},
	)

	AccountsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_updated_total",
			Help: "Total number of user account updates (including upserts)",
		},
	)

	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_tokens_issued_total",
			Help: "Total number of signed tokens issued",
		},
	)

	AuthenticationsSucceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_authentications_succeeded_total",
			Help: "Total number of successful password authentications",
		},
	)

	AuthenticationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_authentications_failed_total",
			Help: "Total number of rejected password authentications",
		},
	)
)
