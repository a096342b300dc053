package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"gemstore/api/aggregator"
	"gemstore/api/metrics"
	"gemstore/api/models"
	"gemstore/api/store"
	"gemstore/api/utils"
)

const (
	defaultReportWindow = 30 * 24 * time.Hour
	fetchTimeout        = 10 * time.Second
)

type EventLister interface {
	ListEvents(ctx context.Context, mode models.Mode, start, end time.Time) ([]models.Event, error)
}

type OrderLister interface {
	ListOrders(ctx context.Context, mode models.Mode, start, end time.Time) ([]models.Order, error)
}

type ReportCache interface {
	Get(ctx context.Context, key string) (*models.MetricsReport, bool, error)
	Set(ctx context.Context, key string, report *models.MetricsReport) error
}

// DashboardHandlers serves the aggregated metrics report behind the admin
// dashboard.
type DashboardHandlers struct {
	events     EventLister
	orders     OrderLister
	cache      ReportCache
	aggregator *aggregator.Aggregator
	now        func() time.Time
}

// NewDashboardHandlers wires the report endpoint. cache may be nil.
func NewDashboardHandlers(events EventLister, orders OrderLister, cache ReportCache, agg *aggregator.Aggregator) *DashboardHandlers {
	return &DashboardHandlers{
		events:     events,
		orders:     orders,
		cache:      cache,
		aggregator: agg,
		now:        time.Now,
	}
}

func (h *DashboardHandlers) GetDashboard(c *gin.Context) {
	mode, err := models.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// the default end is minute-aligned so its cache key holds for a minute
	start, end, err := utils.ParseTimeWindow(c.Query("start"), c.Query("end"), h.now().Truncate(time.Minute), defaultReportWindow)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	key := store.ReportKey(mode, start, end)
	refresh := c.Query("refresh") == "true"

	if h.cache != nil && !refresh {
		report, hit, err := h.cache.Get(ctx, key)
		if err != nil {
			log.Printf("Report cache lookup failed for %s: %v", key, err)
		}
		if hit {
			metrics.ReportCacheLookups.WithLabelValues("hit").Inc()
			c.JSON(http.StatusOK, report)
			return
		}
		metrics.ReportCacheLookups.WithLabelValues("miss").Inc()
	}

	report, err := h.BuildReport(ctx, mode, start, end)
	if err != nil {
		log.Printf("Serving partial report for %s without caching: %v", key, err)
	}

	if h.cache != nil && err == nil {
		if err := h.cache.Set(ctx, key, &report); err != nil {
			log.Printf("Failed to cache report %s: %v", key, err)
		}
	}

	c.JSON(http.StatusOK, report)
}

// BuildReport fetches the window's events and orders and aggregates them.
// A failed fetch is treated as an empty list, so a report is always
// produced; the returned error joins the fetch failures and marks the report
// as partial.
func (h *DashboardHandlers) BuildReport(ctx context.Context, mode models.Mode, start, end time.Time) (models.MetricsReport, error) {
	began := time.Now()
	defer func() {
		metrics.ReportBuildDuration.WithLabelValues(string(mode)).Observe(time.Since(began).Seconds())
	}()

	var (
		wg        sync.WaitGroup
		events    []models.Event
		orders    []models.Order
		eventsErr error
		ordersErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		events, eventsErr = h.events.ListEvents(fetchCtx, mode, start, end)
		if eventsErr != nil {
			log.Printf("Error fetching events for report (mode=%s): %v", mode, eventsErr)
			metrics.ReportSourceFailures.WithLabelValues("events").Inc()
			events = nil
			eventsErr = fmt.Errorf("events: %w", eventsErr)
		}
	}()
	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		orders, ordersErr = h.orders.ListOrders(fetchCtx, mode, start, end)
		if ordersErr != nil {
			log.Printf("Error fetching orders for report (mode=%s): %v", mode, ordersErr)
			metrics.ReportSourceFailures.WithLabelValues("orders").Inc()
			orders = nil
			ordersErr = fmt.Errorf("orders: %w", ordersErr)
		}
	}()
	wg.Wait()

	// stores already partition by mode; re-filter in case a source does not
	report := h.aggregator.Aggregate(aggregator.FilterEvents(events, mode), aggregator.FilterOrders(orders, mode))
	return report, errors.Join(eventsErr, ordersErr)
}
