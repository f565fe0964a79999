// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanPassesTotal counts completed scan passes per scanner.
	ScanPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modwarden_scan_passes_total",
		Help: "Completed scan passes, by scanner.",
	}, []string{"scanner"})

	// ItemsProcessedTotal counts newly processed items per scanner. Items
	// skipped by the dedup ledger are not counted.
	ItemsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modwarden_items_processed_total",
		Help: "New items processed, by scanner.",
	}, []string{"scanner"})

	// ItemsSkippedTotal counts items rejected by the dedup ledger.
	ItemsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modwarden_items_skipped_total",
		Help: "Items skipped as already seen, by scanner.",
	}, []string{"scanner"})

	// ScanErrorsTotal counts per-item processing failures.
	ScanErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modwarden_scan_errors_total",
		Help: "Per-item processing errors, by scanner.",
	}, []string{"scanner"})

	// NotificationsTotal counts messages delivered to the chat webhook.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modwarden_notifications_total",
		Help: "Chat notifications sent, by kind.",
	}, []string{"kind"})

	// RemovalsTotal counts content removals issued by the bot.
	RemovalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modwarden_removals_total",
		Help: "Content removals issued, by reason.",
	}, []string{"reason"})

	// UnflairedLive tracks submissions currently awaiting a flair decision.
	UnflairedLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modwarden_unflaired_live",
		Help: "Submissions currently awaiting a flair decision.",
	})
)
