// Package metrics exposes marketplace state and lifecycle events to Prometheus.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"pubmarket/internal/lifecycle"
	"pubmarket/internal/models"
)

const collectTimeout = 5 * time.Second

var (
	requestsDesc = prometheus.NewDesc(
		"pubmarket_publisher_requests",
		"Current number of publisher requests by status",
		[]string{"status"},
		nil,
	)
	usersDesc = prometheus.NewDesc(
		"pubmarket_users",
		"Current number of accounts by role",
		[]string{"role"},
		nil,
	)
	trafficDesc = prometheus.NewDesc(
		"pubmarket_approved_monthly_traffic",
		"Total monthly traffic across approved listings",
		nil,
		nil,
	)
)

// StatsSource is the read side of the store used on each scrape.
type StatsSource interface {
	CountListingsByStatus(ctx context.Context, ownerID *uuid.UUID) (models.StatusCounts, error)
	CountUsersByRole(ctx context.Context) (models.UserCounts, error)
	SumApprovedTraffic(ctx context.Context) (int64, error)
}

// MarketplaceCollector is a custom Prometheus collector that reads listing
// and account counts from the store on each scrape.
type MarketplaceCollector struct {
	store StatsSource
}

// NewMarketplaceCollector creates a collector over store.
func NewMarketplaceCollector(store StatsSource) *MarketplaceCollector {
	return &MarketplaceCollector{store: store}
}

// Describe sends the metric descriptors to the channel.
func (c *MarketplaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- requestsDesc
	ch <- usersDesc
	ch <- trafficDesc
}

// Collect queries the store and emits gauges. A failing query drops only its
// own metrics.
func (c *MarketplaceCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	if counts, err := c.store.CountListingsByStatus(ctx, nil); err != nil {
		slog.Error("failed to collect publisher request metrics", "error", err)
	} else {
		for status, n := range map[models.Status]int{
			models.StatusPending:     counts.Pending,
			models.StatusUnderReview: counts.UnderReview,
			models.StatusApproved:    counts.Approved,
			models.StatusRejected:    counts.Rejected,
		} {
			ch <- prometheus.MustNewConstMetric(requestsDesc, prometheus.GaugeValue, float64(n), string(status))
		}
	}

	if counts, err := c.store.CountUsersByRole(ctx); err != nil {
		slog.Error("failed to collect user metrics", "error", err)
	} else {
		for role, n := range map[models.Role]int{
			models.RoleUser:       counts.Users,
			models.RoleAdvertiser: counts.Advertisers,
			models.RolePublisher:  counts.Publishers,
			models.RoleAdmin:      counts.Admins,
		} {
			ch <- prometheus.MustNewConstMetric(usersDesc, prometheus.GaugeValue, float64(n), string(role))
		}
	}

	if total, err := c.store.SumApprovedTraffic(ctx); err != nil {
		slog.Error("failed to collect traffic metrics", "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(trafficDesc, prometheus.GaugeValue, float64(total))
	}
}

var _ lifecycle.Observer = (*Recorder)(nil)

// Recorder counts committed lifecycle events and reconciler runs.
type Recorder struct {
	transitions *prometheus.CounterVec
	promotions  *prometheus.CounterVec
	reconciles  *prometheus.CounterVec
}

// NewRecorder creates a recorder and registers its counters with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubmarket_status_transitions_total",
			Help: "Committed publisher request status changes",
		}, []string{"from", "to"}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubmarket_owner_promotions_total",
			Help: "Owners promoted to publisher by source",
		}, []string{"source"}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubmarket_role_reconcile_runs_total",
			Help: "Role reconciler runs by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.transitions, r.promotions, r.reconciles)
	return r
}

// StatusChanged implements lifecycle.Observer.
func (r *Recorder) StatusChanged(from, to models.Status) {
	r.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// OwnerPromoted implements lifecycle.Observer.
func (r *Recorder) OwnerPromoted(source string) {
	r.promotions.WithLabelValues(source).Inc()
}

// ReconcileFinished records the outcome of one reconciler run.
func (r *Recorder) ReconcileFinished(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.reconciles.WithLabelValues(outcome).Inc()
}

var (
	recorder     *Recorder
	recorderOnce sync.Once
)

// Init registers the custom collector and the event recorder with the
// default registry. Must be called once at startup; later calls return the
// first recorder.
func Init(store StatsSource) *Recorder {
	recorderOnce.Do(func() {
		prometheus.MustRegister(NewMarketplaceCollector(store))
		recorder = NewRecorder(prometheus.DefaultRegisterer)
	})
	return recorder
}
