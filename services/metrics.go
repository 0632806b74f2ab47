package services

import "github.com/prometheus/client_golang/prometheus"

var (
	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prayerwall_submissions_total",
		Help: "Submissions accepted, by action type and outcome (queued or code_sent).",
	}, []string{"action_type", "outcome"})

	verificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prayerwall_verifications_total",
		Help: "Verification code checks, by result.",
	}, []string{"result"})

	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prayerwall_decisions_total",
		Help: "Administrator decisions on pending requests.",
	}, []string{"action_type", "decision"})

	notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prayerwall_notifications_total",
		Help: "Per-recipient email dispatch results.",
	}, []string{"result"})

	scanResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prayerwall_scan_results_total",
		Help: "Prayers selected by the staleness scans.",
	}, []string{"scan"})
)

func init() {
	prometheus.MustRegister(submissionsTotal, verificationsTotal, decisionsTotal, notificationsTotal, scanResultsTotal)
}
