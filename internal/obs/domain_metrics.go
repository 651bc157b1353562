package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/velora-dev/backend-velora/internal/tenant"
)

var (
	domainOnce sync.Once

	// MailSendTotal counts low-level email dispatch outcomes per provider.
	MailSendTotal *prometheus.CounterVec
	// MailTransportBuilds counts transport constructions per provider,
	// distinguishing cache misses from explicit rebuilds.
	MailTransportBuilds *prometheus.CounterVec
	// MailNotificationTotal counts best-effort lead notification outcomes.
	MailNotificationTotal *prometheus.CounterVec
	// MailSendLatency records dispatch latency in milliseconds.
	MailSendLatency *prometheus.HistogramVec
	// LeadSubmissionsTotal counts lead form submissions per tenant outcome.
	LeadSubmissionsTotal *prometheus.CounterVec
	// TenantResolutionTotal counts tenant resolution outcomes per source.
	TenantResolutionTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		MailSendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_send_total",
			Help:      "Count of email dispatch outcomes.",
		}, []string{"provider", "result"})
		MailTransportBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_transport_builds_total",
			Help:      "Count of mail transport constructions by provider.",
		}, []string{"provider"})
		MailNotificationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_notification_total",
			Help:      "Count of best-effort lead notification outcomes.",
		}, []string{"kind", "result"})
		MailSendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mail_send_duration_ms",
			Help:      "Latency for email dispatch attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"provider"})
		LeadSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lead_submissions_total",
			Help:      "Count of lead form submissions by outcome.",
		}, []string{"result"})
		TenantResolutionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_resolution_total",
			Help:      "Count of tenant resolution outcomes by source.",
		}, []string{"source"})

		mustRegisterCollector(reg, MailSendTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				MailSendTotal = v
			}
		})
		mustRegisterCollector(reg, MailTransportBuilds, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				MailTransportBuilds = v
			}
		})
		mustRegisterCollector(reg, MailNotificationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				MailNotificationTotal = v
			}
		})
		mustRegisterCollector(reg, MailSendLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				MailSendLatency = v
			}
		})
		mustRegisterCollector(reg, LeadSubmissionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LeadSubmissionsTotal = v
			}
		})
		mustRegisterCollector(reg, TenantResolutionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TenantResolutionTotal = v
			}
		})
		tenant.SetResolutionCounter(TenantResolutionTotal)
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
