package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkbloom", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkbloom", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	BlogEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkbloom", Name: "blog_events_total", Help: "Blog lifecycle and engagement events (publish, edit, delete, view, like)."},
		[]string{"event"},
	)
	CommentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkbloom", Name: "comment_events_total", Help: "Comment outcomes (accepted, flagged, deleted)."},
		[]string{"outcome"},
	)
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkbloom", Name: "uploads_total", Help: "Object uploads by backend and result."},
		[]string{"backend", "result"},
	)
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkbloom", Name: "logins_total", Help: "OAuth login attempts by provider and result."},
		[]string{"provider", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(BlogEvents)
	reg.MustRegister(CommentEvents)
	reg.MustRegister(Uploads)
	reg.MustRegister(Logins)
}
