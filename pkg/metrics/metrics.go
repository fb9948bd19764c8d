// Package metrics содержит prometheus коллекторы сервиса
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты бронирования для счетчика bookings_total
const (
	BookingResultBooked   = "booked"
	BookingResultConflict = "conflict"
	BookingResultInvalid  = "invalid"
	BookingResultError    = "error"
)

// Metrics набор метрик сервиса
// Все методы безопасно вызывать на nil получателе (метрики выключены)
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbOpenConns     prometheus.Gauge
	dbInUseConns    prometheus.Gauge
	dbIdleConns     prometheus.Gauge
	dbWaitCount     prometheus.Gauge

	bookingsTotal       *prometheus.CounterVec
	slotsBookedTotal    prometheus.Counter
	slotsReleasedTotal  prometheus.Counter
	rpcCommandsTotal    *prometheus.CounterVec
	rateLimitedRequests prometheus.Counter
}

// New создает и регистрирует метрики в отдельном реестре
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		dbQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: labels,
		}, []string{"operation"}),
		dbOpenConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_open_connections",
			Help:        "Open connections in the pool",
			ConstLabels: labels,
		}),
		dbInUseConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_in_use_connections",
			Help:        "Connections currently in use",
			ConstLabels: labels,
		}),
		dbIdleConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_idle_connections",
			Help:        "Idle connections in the pool",
			ConstLabels: labels,
		}),
		dbWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: labels,
		}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "slot_bookings_total",
			Help:        "Booking attempts by result",
			ConstLabels: labels,
		}, []string{"result"}),
		slotsBookedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "slots_booked_total",
			Help:        "Slots transitioned to BOOKED",
			ConstLabels: labels,
		}),
		slotsReleasedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "slots_released_total",
			Help:        "Slots released back to AVAILABLE",
			ConstLabels: labels,
		}),
		rpcCommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rpc_commands_total",
			Help:        "Commands received over the message broker",
			ConstLabels: labels,
		}, []string{"pattern", "ok"}),
		rateLimitedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "http_rate_limited_requests_total",
			Help:        "Requests rejected by the rate limiter",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueryDuration,
		m.dbQueryErrors,
		m.dbOpenConns,
		m.dbInUseConns,
		m.dbIdleConns,
		m.dbWaitCount,
		m.bookingsTotal,
		m.slotsBookedTotal,
		m.slotsReleasedTotal,
		m.rpcCommandsTotal,
		m.rateLimitedRequests,
	)

	return m
}

// Handler возвращает HTTP handler для эндпоинта /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest учитывает обработанный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery учитывает выполненный SQL запрос
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.dbQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(open, inUse, idle int, waitCount int64) {
	if m == nil {
		return
	}
	m.dbOpenConns.Set(float64(open))
	m.dbInUseConns.Set(float64(inUse))
	m.dbIdleConns.Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
}

// ObserveBooking учитывает попытку бронирования
func (m *Metrics) ObserveBooking(result string, slots int) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
	if result == BookingResultBooked {
		m.slotsBookedTotal.Add(float64(slots))
	}
}

// ObserveRelease учитывает освобожденные слоты
func (m *Metrics) ObserveRelease(slots int) {
	if m == nil {
		return
	}
	m.slotsReleasedTotal.Add(float64(slots))
}

// ObserveRPCCommand учитывает команду, полученную через брокер
func (m *Metrics) ObserveRPCCommand(pattern string, ok bool) {
	if m == nil {
		return
	}
	m.rpcCommandsTotal.WithLabelValues(pattern, strconv.FormatBool(ok)).Inc()
}

// IncRateLimited учитывает отклоненный лимитером запрос
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedRequests.Inc()
}
