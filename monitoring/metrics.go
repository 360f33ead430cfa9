package monitoring

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var (
	searchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total search requests by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Duration of store-backed search queries",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"operation"},
	)

	bookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total confirmed bookings",
		},
	)

	bookingAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_amount",
			Help:    "Total price distribution of confirmed bookings",
			Buckets: prometheus.ExponentialBuckets(50, 2, 8),
		},
	)

	activeDeals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_deals_total",
			Help: "Current number of unexpired deals",
		},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

// TrackSearch records one search operation and its latency.
func TrackSearch(operation, status string, duration time.Duration) {
	searchRequests.WithLabelValues(operation, status).Inc()
	if duration > 0 {
		searchDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// TrackBooking records a confirmed booking and its total amount.
func TrackBooking(totalPrice float64) {
	bookingsCreated.Inc()
	bookingAmount.Observe(totalPrice)
}

// TrackRateLimited records a request rejected by the rate limiter.
func TrackRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		m.collectDealMetrics(ctx)
	}
}

// collectDealMetrics reads the active-deal set size maintained by the deal
// sync service.
func (m *Monitor) collectDealMetrics(ctx context.Context) {
	count, err := m.redis.SCard(ctx, "active_deals").Result()
	if err != nil {
		return
	}
	activeDeals.Set(float64(count))
}

// StartMetricsServer exposes /metrics on its own port so the scrape surface
// stays off the public API.
func StartMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server stopped: %v", err)
		}
	}()
}
