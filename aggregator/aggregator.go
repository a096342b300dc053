// Package aggregator turns a window of tracked storefront events into the
// metrics shown on the admin dashboard.
//
// Aggregation is a pure computation: it performs no I/O, keeps no state
// between calls and never mutates its inputs, so a single Aggregator may be
// shared by any number of goroutines. Missing or malformed fields degrade to
// zero, "Unknown" or "direct" instead of failing.
package aggregator

import (
	"time"

	"gemstore/api/models"
)

const defaultTopN = 5

type Aggregator struct {
	loc  *time.Location
	topN int
}

type Option func(*Aggregator)

// WithLocation sets the time zone used to bucket page views by hour of day.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithTopN caps the length of the ranked lists in the report.
func WithTopN(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.topN = n
		}
	}
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		loc:  time.Local,
		topN: defaultTopN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate builds a report with the default settings.
func Aggregate(events []models.Event, orders []models.Order) models.MetricsReport {
	return New().Aggregate(events, orders)
}

// Aggregate recomputes every dashboard metric from events and orders.
// Both slices may be empty or unsorted.
func (a *Aggregator) Aggregate(events []models.Event, orders []models.Order) models.MetricsReport {
	report := models.MetricsReport{
		TrafficSources: []models.TrafficSource{},
		TopCountries:   []models.CountryStat{},
		TopProducts:    []models.ProductStat{},
	}

	sessions := GroupSessions(events)
	report.TotalSessions = len(sessions)

	conversions := 0
	for _, e := range events {
		switch e.EventType {
		case models.EventPageView:
			report.PageViews++
			if hour, ok := a.hourOf(e.Timestamp); ok {
				report.HourlyTraffic[hour]++
			}
		case models.EventCheckoutComplete:
			conversions++
		}
	}

	if report.TotalSessions > 0 {
		total := float64(report.TotalSessions)
		bounced := 0
		var duration float64
		for _, s := range sessions {
			if s.Count(models.EventPageView) == 1 {
				bounced++
			}
			duration += s.Duration().Seconds()
		}
		report.BounceRate = float64(bounced) / total * 100
		report.AvgSessionDuration = duration / total
		report.ConversionRate = float64(conversions) / total * 100
	}

	report.TrafficSources = a.trafficSources(events, sessions, conversions)
	report.TopCountries = a.topCountries(events)
	report.DeviceBreakdown = deviceBreakdown(events)
	report.CartAbandonmentRate = cartAbandonmentRate(events)
	report.TopProducts = a.topProducts(events, orders)

	return report
}

func (a *Aggregator) hourOf(t time.Time) (int, bool) {
	if t.IsZero() {
		return 0, false
	}
	return t.In(a.loc).Hour(), true
}
