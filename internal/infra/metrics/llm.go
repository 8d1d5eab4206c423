package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		llmTokensIn,
		llmTokensOut,
		llmTokensTotal,
		llmCallsLatencyMs,
		llmFallbacks,
	)
}

var (
	llmTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model/task.",
		},
		[]string{"provider", "model", "task"},
	)

	llmTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_out",
			Help: "Sum of completion (output) tokens per provider/model/task.",
		},
		[]string{"provider", "model", "task"},
	)

	llmTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Sum of total tokens per provider/model/task.",
		},
		[]string{"provider", "model", "task"},
	)

	llmCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_calls_latency_ms",
			Help:    "LLM call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
		},
		[]string{"provider", "model", "success"},
	)

	llmFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "Count of completions retried on the alternative model config.",
		},
		[]string{"task"},
	)
)

func ObserveLLMUsage(provider, model, task string, tokensIn, tokensOut, tokensTotal, latencyMs int, success bool) {
	lbl := []string{norm(provider), norm(model), norm(task)}
	llmTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	llmTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
	llmTokensTotal.WithLabelValues(lbl...).Add(float64(tokensTotal))
	llmCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncLLMFallback(task string) {
	llmFallbacks.WithLabelValues(norm(task)).Inc()
}
