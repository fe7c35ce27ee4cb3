// Package metrics holds the Prometheus collectors for the engagement service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_comments_created_total",
		Help: "Comments created, by nesting level.",
	}, []string{"level"})

	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_likes_toggled_total",
		Help: "Like toggles, by target type and resulting state.",
	}, []string{"target", "result"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_comment_notifications_total",
		Help: "New-comment notifications, by outcome.",
	}, []string{"status"})

	ProfileLookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_profile_lookup_failures_total",
		Help: "Profile lookups that failed or timed out during enrichment.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_events_dropped_total",
		Help: "Comment events that could not be handed to the event backend.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"method", "route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func Level(topLevel bool) string {
	if topLevel {
		return "top"
	}
	return "reply"
}

func LikeResult(liked bool) string {
	if liked {
		return "liked"
	}
	return "unliked"
}
