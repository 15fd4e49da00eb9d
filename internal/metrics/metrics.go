package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Technical metrics
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ResponseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_time_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"method", "path"})

	// Business metrics
	PartsReplaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parts_replaced_total",
		Help: "Replacement records created, by warranty status",
	}, []string{"warranty"})

	ReplacementRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replacement_rejections_total",
		Help: "Replacement attempts rejected, by reason",
	}, []string{"reason"})

	LinksIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "one_time_links_issued_total",
		Help: "One-time links issued, by purpose",
	}, []string{"purpose"})

	LinksRedeemed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "one_time_links_redeemed_total",
		Help: "One-time link redemption attempts, by purpose and result",
	}, []string{"purpose", "result"})

	MailSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_send_total",
		Help: "Outgoing mails, by status",
	}, []string{"status"})
)
