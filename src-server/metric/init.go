package metric

import (
	"log/slog"
	"time"
	"workdeck/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func Init(as *utils.AppState) {
	tickerInterval := 30 * time.Second
	clearTickerInterval := 5 * time.Minute

	databaseEmptyRead(as, &tickerInterval)
	authMiddlewareRead(as, &clearTickerInterval)
	suggestLatency(as, &clearTickerInterval)
	rejections(as)
}

func authMiddlewareRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	authRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "workdeck_auth_middleware_read_microsec",
		Help: "The latency of the session lookup in the auth middleware in microseconds",
	})
	good := true
	if err := prometheus.Register(authRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register workdeck_auth_middleware_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("workdeck_auth_middleware_read_microsec metric registered")
		authRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(authRead) {
				case true:
					slog.Debug("workdeck_auth_middleware_read_microsec metric unregistered")
				case false:
					slog.Warn("workdeck_auth_middleware_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseReadForAuthMiddleware:
				authRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				authRead.Set(0)
			}
		}
	}()
}

func suggestLatency(as *utils.AppState, clearTickerInterval *time.Duration) {
	suggest := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "workdeck_suggest_latency_microsec",
		Help: "The latency of the last slot suggestion computation in microseconds",
	})
	good := true
	if err := prometheus.Register(suggest); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register workdeck_suggest_latency_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("workdeck_suggest_latency_microsec metric registered")
		suggest.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(suggest) {
				case true:
					slog.Debug("workdeck_suggest_latency_microsec metric unregistered")
				case false:
					slog.Warn("workdeck_suggest_latency_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.SuggestLatency:
				suggest.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				suggest.Set(0)
			}
		}
	}()
}

func rejections(as *utils.AppState) {
	rejected := promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workdeck_placement_rejections_total",
		Help: "Placement validation rejections by code",
	}, []string{"code"})
	if err := prometheus.Register(rejected); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register workdeck_placement_rejections_total metric", "error", err)
			return
		}
	}
	slog.Debug("workdeck_placement_rejections_total metric registered")
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(rejected) {
				case true:
					slog.Debug("workdeck_placement_rejections_total metric unregistered")
				case false:
					slog.Warn("workdeck_placement_rejections_total metric not registered")
				}
				return
			case code := <-as.MetricChans.Rejections:
				rejected.WithLabelValues(code).Inc()
			}
		}
	}()
}
