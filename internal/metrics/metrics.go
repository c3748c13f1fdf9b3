// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheReads counts record cache reads by outcome: hit, miss, stale.
	CacheReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_cache_reads_total",
		Help: "Record cache reads by outcome.",
	}, []string{"outcome"})

	// CacheRefreshes counts remote snapshot fetches by result.
	CacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_cache_refreshes_total",
		Help: "Remote snapshot fetches by result.",
	}, []string{"result"})

	// ImportBatches counts import batches by result kind.
	ImportBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_import_batches_total",
		Help: "Import batches by result.",
	}, []string{"result"})

	TicketsAllocated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_tickets_allocated_total",
		Help: "Tickets written by successful imports.",
	})

	// Mails counts dispatch jobs by final state: sent, failed.
	Mails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_mails_total",
		Help: "Ticket mail jobs by final state.",
	}, []string{"state"})

	Checkins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_checkins_total",
		Help: "Successful check-in writes.",
	})
)
