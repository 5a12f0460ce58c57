package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricModelRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_model_rounds_total",
		Help: "Model request/response rounds across all turns.",
	})
	metricToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_tool_calls_total",
		Help: "Tool invocations requested by the model.",
	}, []string{"tool"})
)
