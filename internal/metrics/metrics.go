package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_model_requests_total",
			Help: "Model backend calls by backend and outcome (ok, empty, error)",
		},
		[]string{"backend", "outcome"},
	)

	ModelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_model_request_duration_seconds",
			Help:    "Duration of model backend calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"backend"},
	)

	ModelFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_model_fallbacks_total",
			Help: "Times the local model answered empty and the remote model was tried",
		},
	)

	Messages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_messages_total",
			Help: "Handled user messages by classified flow",
		},
		[]string{"flow"},
	)

	MessageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_message_duration_seconds",
			Help:    "End-to-end message handling time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"flow"},
	)

	ShortReplies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_short_replies_total",
			Help: "Replies annotated by the quality gate",
		},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Tool dispatch outcomes (ok, error, unknown_tool, missing_params)",
		},
		[]string{"tool", "outcome"},
	)

	RetrievalMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_retrieval_matches",
			Help:    "Documents returned per retrieval query",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
		},
	)

	EmbeddingCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_embedding_cache_total",
			Help: "Embedding cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_rate_limited_total",
			Help: "Requests refused by the per-client rate limiter",
		},
	)
)
