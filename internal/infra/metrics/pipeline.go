package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		chatRequestsTotal,
		chatDurationMs,
		stageFailuresTotal,
		parseOutcomesTotal,
		emailsTotal,
		knowledgeRequestsTotal,
	)
}

var (
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Chat requests by terminal status.",
		},
		[]string{"status"}, // 'ok', 'error', 'rejected', 'rate_limited'
	)

	chatDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_pipeline_duration_ms",
			Help:    "End-to-end chat pipeline duration in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000, 60000},
		},
		[]string{"status"},
	)

	stageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_failures_total",
			Help: "Non-fatal and fatal stage failures by stage and reason.",
		},
		[]string{"stage", "reason"},
	)

	parseOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_parse_outcomes_total",
			Help: "How structured LLM output was recovered, per stage.",
		},
		[]string{"stage", "outcome"}, // outcome: 'direct', 'repaired', 'fields', 'fallback'
	)

	emailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_emails_total",
			Help: "Staff notification emails by delivery status.",
		},
		[]string{"status"}, // 'sent', 'failed', 'skipped'
	)

	knowledgeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_requests_total",
			Help: "Knowledge base loads by result.",
		},
		[]string{"result"}, // 'fresh', 'cached', 'stale_fallback', 'error'
	)
)

func IncChatRequest(status string) {
	chatRequestsTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveChatDuration(status string, ms int) {
	chatDurationMs.WithLabelValues(norm(status)).Observe(float64(ms))
}

func IncStageFailure(stage, reason string) {
	stageFailuresTotal.WithLabelValues(norm(stage), norm(reason)).Inc()
}

func IncParseOutcome(stage, outcome string) {
	parseOutcomesTotal.WithLabelValues(norm(stage), norm(outcome)).Inc()
}

func IncEmail(status string) {
	emailsTotal.WithLabelValues(norm(status)).Inc()
}

func IncKnowledgeRequest(result string) {
	knowledgeRequestsTotal.WithLabelValues(norm(result)).Inc()
}
