// api/store/analytics_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"gemstore/api/database"
	"gemstore/api/models"
	"gemstore/api/utils"
)

// AnalyticsStore persists tracked events in the ClickHouse table
// analytics_events and serves them back for reporting.
type AnalyticsStore struct {
	DB *database.ClickHouseClient
}

type EventTypeCountByTime struct {
	Time      time.Time `json:"time"`
	EventType *string   `json:"eventType,omitempty"`
	Count     uint64    `json:"count"`
}

func NewAnalyticsStore(chClient *database.ClickHouseClient) *AnalyticsStore {
	return &AnalyticsStore{
		DB: chClient,
	}
}

// eventWindow is the WHERE clause shared by every read: a time window plus
// the live/dev partition.
type eventWindow struct {
	clauses []string
	args    []any
}

func newEventWindow(mode models.Mode, start, end time.Time) *eventWindow {
	return &eventWindow{
		clauses: []string{"timestamp >= ?", "timestamp <= ?", "is_test_session = ?"},
		args:    []any{start, end, mode.IncludesTest()},
	}
}

func (w *eventWindow) and(clause string, arg any) *eventWindow {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, arg)
	return w
}

func (w *eventWindow) where() string {
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

func (s *AnalyticsStore) InsertEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO analytics_events (
			id, event_type, session_id, timestamp, device_type, country, event_data, is_test_session
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	appended := 0
	for _, event := range events {
		if err := batch.Append(eventColumns(event)...); err != nil {
			log.Printf("Error appending event to batch (id: %s): %v", event.ID, err)
			continue
		}
		appended++
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Successfully inserted %d of %d analytics events.", appended, len(events))
	return nil
}

// eventColumns orders an event's fields as the analytics_events insert
// expects them. event_data is stored as a JSON string.
func eventColumns(e models.Event) []any {
	return []any{
		e.ID,
		e.EventType,
		e.SessionID,
		e.Timestamp,
		e.DeviceType,
		e.Country,
		string(e.EventData),
		e.IsTestSession,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.Event, error) {
	var (
		e    models.Event
		data string
	)
	if err := row.Scan(&e.ID, &e.EventType, &e.SessionID, &e.Timestamp, &e.DeviceType, &e.Country, &data, &e.IsTestSession); err != nil {
		return models.Event{}, err
	}
	if data != "" {
		e.EventData = json.RawMessage(data)
	}
	return e, nil
}

// ListEvents returns every event of the given mode inside [start, end].
func (s *AnalyticsStore) ListEvents(ctx context.Context, mode models.Mode, start, end time.Time) ([]models.Event, error) {
	w := newEventWindow(mode, start, end)
	query := fmt.Sprintf(`
		SELECT id, event_type, session_id, timestamp, device_type, country, event_data, is_test_session
		FROM analytics_events
		%s
		ORDER BY timestamp ASC
	`, w.where())

	rows, err := s.DB.Conn.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			log.Printf("Error scanning analytics event row: %v", err)
			continue
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during events query: %w", err)
	}

	return events, nil
}

func eventCountsQuery(interval string, w *eventWindow, byType bool) (string, error) {
	if !utils.IsValidInterval(interval) {
		return "", fmt.Errorf("invalid interval: %s", interval)
	}

	selectCols := fmt.Sprintf("toStartOf%s(timestamp) as time_bucket, count() as total_events", interval)
	groupByCols := "time_bucket"
	orderByCols := "time_bucket ASC"
	if byType {
		selectCols += ", event_type"
		groupByCols += ", event_type"
		orderByCols += ", event_type ASC"
	}

	return fmt.Sprintf(`
		SELECT %s
		FROM analytics_events
		%s
		GROUP BY %s
		ORDER BY %s
	`, selectCols, w.where(), groupByCols, orderByCols), nil
}

func (s *AnalyticsStore) GetEventCountsOverTime(ctx context.Context, mode models.Mode, interval string, start, end time.Time, eventTypeFilter string) ([]EventTypeCountByTime, error) {
	w := newEventWindow(mode, start, end)
	isFilteringByType := eventTypeFilter != ""
	if isFilteringByType {
		w.and("event_type = ?", eventTypeFilter)
	}

	query, err := eventCountsQuery(interval, w, isFilteringByType)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Conn.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts over time: %w", err)
	}
	defer rows.Close()

	results := []EventTypeCountByTime{}
	for rows.Next() {
		var (
			timeBucket    time.Time
			count         uint64
			eventTypeDB   string
			currentResult EventTypeCountByTime
		)

		if isFilteringByType {
			if err := rows.Scan(&timeBucket, &count, &eventTypeDB); err != nil {
				log.Printf("Error scanning row for event counts over time (with type filter): %v", err)
				continue
			}
			currentResult.EventType = &eventTypeDB
		} else {
			if err := rows.Scan(&timeBucket, &count); err != nil {
				log.Printf("Error scanning row for event counts over time (no type filter): %v", err)
				continue
			}
		}

		currentResult.Time = timeBucket
		currentResult.Count = count
		results = append(results, currentResult)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event counts over time query: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetUniqueSessionsOverTime(ctx context.Context, mode models.Mode, interval string, start, end time.Time) ([]EventTypeCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	w := newEventWindow(mode, start, end)
	query := fmt.Sprintf(`
		SELECT toStartOf%s(timestamp) AS time_bucket, uniq(session_id) AS unique_sessions
		FROM analytics_events
		%s
		GROUP BY time_bucket
		ORDER BY time_bucket ASC
	`, interval, w.where())

	rows, err := s.DB.Conn.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique sessions over time: %w", err)
	}
	defer rows.Close()

	results := []EventTypeCountByTime{}
	for rows.Next() {
		var timeBucket time.Time
		var uniqueSessions uint64
		if err := rows.Scan(&timeBucket, &uniqueSessions); err != nil {
			log.Printf("Error scanning row for unique sessions: %v", err)
			continue
		}
		results = append(results, EventTypeCountByTime{
			Time:  timeBucket,
			Count: uniqueSessions,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for unique sessions: %w", err)
	}

	return results, nil
}

// GetAverageEventParam averages a numeric event_data field, e.g. order_value
// of checkout_complete events.
func (s *AnalyticsStore) GetAverageEventParam(ctx context.Context, mode models.Mode, eventType, paramName string, start, end time.Time) (float64, error) {
	if paramName == "" {
		return 0.0, fmt.Errorf("parameter name for average calculation cannot be empty")
	}

	w := newEventWindow(mode, start, end).and("event_type = ?", eventType)
	query := fmt.Sprintf(`
		SELECT avg(JSONExtractFloat(event_data, ?))
		FROM analytics_events
		%s
	`, w.where())

	args := append([]any{paramName}, w.args...)

	var avgValue float64
	if err := s.DB.Conn.QueryRow(ctx, query, args...).Scan(&avgValue); err != nil {
		return 0.0, fmt.Errorf("failed to query average of event parameter '%s': %w", paramName, err)
	}

	// avg() over no rows is NaN, which encoding/json rejects
	if math.IsNaN(avgValue) {
		return 0.0, nil
	}

	return avgValue, nil
}

type TopPathResult struct {
	PagePath string `json:"pagePath"`
	Count    uint64 `json:"count"`
}

// GetTopNPagePaths ranks page_path values recorded on page_view events.
func (s *AnalyticsStore) GetTopNPagePaths(ctx context.Context, mode models.Mode, start, end time.Time, limit uint64) ([]TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	w := newEventWindow(mode, start, end).and("event_type = ?", models.EventPageView)
	query := fmt.Sprintf(`
		SELECT JSONExtractString(event_data, 'page_path') AS page_path, count() AS view_count
		FROM analytics_events
		%s
		GROUP BY page_path
		ORDER BY view_count DESC
		LIMIT ?
	`, w.where())

	rows, err := s.DB.Conn.Query(ctx, query, append(w.args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top page paths: %w", err)
	}
	defer rows.Close()

	results := []TopPathResult{}
	for rows.Next() {
		var r TopPathResult
		if err := rows.Scan(&r.PagePath, &r.Count); err != nil {
			log.Printf("Error scanning row for top page paths: %v", err)
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top page paths: %w", err)
	}

	return results, nil
}
