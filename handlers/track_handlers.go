// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gemstore/api/metrics"
	"gemstore/api/models"
	"gemstore/api/store"
	"gemstore/api/utils"
)

const defaultStatsWindow = 7 * 24 * time.Hour

// EventStore is the collector's view of event storage.
type EventStore interface {
	InsertEvents(ctx context.Context, events []models.Event) error
	ListEvents(ctx context.Context, mode models.Mode, start, end time.Time) ([]models.Event, error)
	GetEventCountsOverTime(ctx context.Context, mode models.Mode, interval string, start, end time.Time, eventTypeFilter string) ([]store.EventTypeCountByTime, error)
	GetUniqueSessionsOverTime(ctx context.Context, mode models.Mode, interval string, start, end time.Time) ([]store.EventTypeCountByTime, error)
	GetAverageEventParam(ctx context.Context, mode models.Mode, eventType, paramName string, start, end time.Time) (float64, error)
	GetTopNPagePaths(ctx context.Context, mode models.Mode, start, end time.Time, limit uint64) ([]store.TopPathResult, error)
}

type AnalyticsHandlers struct {
	AnalyticsStore EventStore
	now            func() time.Time
}

func NewAnalyticsHandlers(s EventStore) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		AnalyticsStore: s,
		now:            time.Now,
	}
}

// TrackEvent accepts a batch of storefront events. Missing ids, session ids
// and timestamps are filled in before the batch is stored.
func (h *AnalyticsHandlers) TrackEvent(c *gin.Context) {
	var incomingEvents []models.Event
	if err := c.ShouldBindJSON(&incomingEvents); err != nil {
		log.Printf("Error binding incoming analytics JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(incomingEvents) == 0 {
		c.Status(http.StatusOK)
		return
	}

	now := h.now().UTC()
	eventsToInsert := make([]models.Event, 0, len(incomingEvents))
	for _, event := range incomingEvents {
		if event.EventType == "" {
			continue
		}
		if event.ID == "" {
			event.ID = uuid.New().String()
		}
		if event.SessionID == "" {
			event.SessionID = utils.GenerateSessionID()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = now
		}
		eventsToInsert = append(eventsToInsert, event)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.AnalyticsStore.InsertEvents(ctx, eventsToInsert); err != nil {
		log.Printf("Error inserting analytics events into ClickHouse: %v", err)
		metrics.TrackErrors.Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record analytics events"})
		return
	}

	for _, event := range eventsToInsert {
		mode := models.ModeLive
		if event.IsTestSession {
			mode = models.ModeDev
		}
		metrics.EventsTracked.WithLabelValues(event.EventType, string(mode)).Inc()
	}

	c.JSON(http.StatusOK, gin.H{"accepted": len(eventsToInsert)})
}

// statsQuery holds the parameters shared by the stats endpoints.
type statsQuery struct {
	mode       models.Mode
	start, end time.Time
}

func (h *AnalyticsHandlers) parseStatsQuery(c *gin.Context, fallback time.Duration) (statsQuery, bool) {
	mode, err := models.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return statsQuery{}, false
	}

	start, end, err := utils.ParseTimeWindow(c.Query("start"), c.Query("end"), h.now(), fallback)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return statsQuery{}, false
	}

	return statsQuery{mode: mode, start: start, end: end}, true
}

func (h *AnalyticsHandlers) GetEventCountsOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if !utils.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}

	q, ok := h.parseStatsQuery(c, defaultStatsWindow)
	if !ok {
		return
	}
	eventTypeFilter := c.Query("eventType")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.AnalyticsStore.GetEventCountsOverTime(ctx, q.mode, interval, q.start, q.end, eventTypeFilter)
	if err != nil {
		log.Printf("Error getting event counts over time (mode=%s): %v", q.mode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetUniqueSessionsOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if !utils.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}

	q, ok := h.parseStatsQuery(c, defaultStatsWindow)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.AnalyticsStore.GetUniqueSessionsOverTime(ctx, q.mode, interval, q.start, q.end)
	if err != nil {
		log.Printf("Error getting unique sessions over time (mode=%s): %v", q.mode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve unique session statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetAverageEventParam(c *gin.Context) {
	eventTypeFilter := c.Query("eventType")
	paramName := c.Query("paramName")

	if eventTypeFilter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventType query parameter is required"})
		return
	}
	if paramName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramName query parameter is required (e.g., 'order_value', 'cart_value')"})
		return
	}

	q, ok := h.parseStatsQuery(c, defaultStatsWindow)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	avgValue, err := h.AnalyticsStore.GetAverageEventParam(ctx, q.mode, eventTypeFilter, paramName, q.start, q.end)
	if err != nil {
		log.Printf("Error getting average of event parameter '%s' for eventType '%s': %v", paramName, eventTypeFilter, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve average event parameter statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"eventType":    eventTypeFilter,
		"paramName":    paramName,
		"mode":         q.mode,
		"startDate":    q.start.Format(time.RFC3339),
		"endDate":      q.end.Format(time.RFC3339),
		"averageValue": avgValue,
	})
}

func (h *AnalyticsHandlers) GetTopNPagePaths(c *gin.Context) {
	q, ok := h.parseStatsQuery(c, defaultStatsWindow)
	if !ok {
		return
	}

	var limit uint64 = 10
	if limitParam := c.Query("limit"); limitParam != "" {
		parsedLimit, err := strconv.ParseUint(limitParam, 10, 64)
		if err != nil || parsedLimit == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsedLimit
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.AnalyticsStore.GetTopNPagePaths(ctx, q.mode, q.start, q.end, limit)
	if err != nil {
		log.Printf("Error getting top page paths (mode=%s): %v", q.mode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top page paths statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}
