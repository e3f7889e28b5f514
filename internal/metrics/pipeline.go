package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "resume",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "简历生成管道各阶段耗时（秒）。",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	pipelineStageFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "resume",
			Name:      "pipeline_stage_failures_total",
			Help:      "按阶段统计的管道失败次数。",
		},
		[]string{"stage"},
	)

	pipelineGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "resume",
			Name:      "generations_total",
			Help:      "简历生成总次数。",
		},
		[]string{"result"},
	)
)

// ObservePipelineStage 记录一个管道阶段的耗时。
func ObservePipelineStage(stage string, elapsed time.Duration) {
	pipelineStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// PipelineStageFailed 记录一次阶段失败。
func PipelineStageFailed(stage string) {
	pipelineStageFailed.WithLabelValues(stage).Inc()
}

// PipelineFinished 记录一次生成的最终结果。
func PipelineFinished(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	pipelineGenerations.WithLabelValues(result).Inc()
}
