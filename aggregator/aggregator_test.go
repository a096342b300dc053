package aggregator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemstore/api/models"
)

var base = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func ev(session, eventType string, at time.Time, data map[string]any) models.Event {
	e := models.Event{
		ID:        gofakeit.UUID(),
		EventType: eventType,
		SessionID: session,
		Timestamp: at,
	}
	if data != nil {
		raw, _ := json.Marshal(data)
		e.EventData = raw
	}
	return e
}

func utc() *Aggregator {
	return New(WithLocation(time.UTC))
}

func TestAggregate_Empty(t *testing.T) {
	report := utc().Aggregate(nil, nil)

	assert.Equal(t, 0, report.TotalSessions)
	assert.Equal(t, 0, report.PageViews)
	assert.Zero(t, report.BounceRate)
	assert.Zero(t, report.AvgSessionDuration)
	assert.Zero(t, report.ConversionRate)
	assert.Zero(t, report.CartAbandonmentRate)
	assert.Equal(t, models.DeviceBreakdown{}, report.DeviceBreakdown)
	assert.Equal(t, [24]int{}, report.HourlyTraffic)
	assert.Empty(t, report.TrafficSources)
	assert.Empty(t, report.TopCountries)
	assert.Empty(t, report.TopProducts)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"trafficSources":[]`)
	assert.Contains(t, string(raw), `"topProducts":[]`)
}

func TestAggregate_SingleLandingPage(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventPageView, base, map[string]any{"traffic_source": "google"}),
	}

	report := utc().Aggregate(events, nil)

	assert.Equal(t, 1, report.TotalSessions)
	assert.Equal(t, 1, report.PageViews)
	assert.Equal(t, 100.0, report.BounceRate)
	assert.Equal(t, []models.TrafficSource{
		{Source: "google", Sessions: 1, Revenue: 0, Conversion: 0},
	}, report.TrafficSources)
	assert.Equal(t, 1, report.HourlyTraffic[10])
}

func TestAggregate_ConvertedSession(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventCheckoutComplete, base.Add(3*time.Minute), map[string]any{"order_value": 150}),
		ev("s1", models.EventPageView, base, nil),
		ev("s1", models.EventPageView, base.Add(2*time.Minute), nil),
	}

	report := utc().Aggregate(events, nil)

	assert.Equal(t, 1, report.TotalSessions)
	assert.Equal(t, 2, report.PageViews)
	assert.Equal(t, 0.0, report.BounceRate)
	assert.Equal(t, 180.0, report.AvgSessionDuration)
	assert.Equal(t, 100.0, report.ConversionRate)
	require.Len(t, report.TrafficSources, 1)
	assert.Equal(t, "direct", report.TrafficSources[0].Source)
	assert.Equal(t, 150.0, report.TrafficSources[0].Revenue)
	assert.Equal(t, 100.0, report.TrafficSources[0].Conversion)
}

func TestAggregate_RevenueFollowsFirstPageView(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventPageView, base.Add(time.Minute), map[string]any{"traffic_source": "instagram"}),
		ev("s1", models.EventPageView, base, map[string]any{"traffic_source": "google"}),
		ev("s1", models.EventCheckoutComplete, base.Add(2*time.Minute), map[string]any{"order_value": 99.5}),
	}

	report := utc().Aggregate(events, nil)

	revenue := map[string]float64{}
	for _, s := range report.TrafficSources {
		revenue[s.Source] = s.Revenue
	}
	assert.Equal(t, 99.5, revenue["google"])
	assert.Equal(t, 0.0, revenue["instagram"])
}

func TestAggregate_CheckoutWithoutPageViewCreditsDirect(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventPageView, base, map[string]any{"traffic_source": "google"}),
		ev("s2", models.EventCheckoutComplete, base, map[string]any{"order_value": 40}),
	}

	report := utc().Aggregate(events, nil)

	require.Len(t, report.TrafficSources, 2)
	assert.Equal(t, "google", report.TrafficSources[0].Source)
	assert.Equal(t, models.TrafficSource{Source: "direct", Sessions: 0, Revenue: 40}, report.TrafficSources[1])
}

func TestAggregate_SourceConversionUsesGlobalCount(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventPageView, base, map[string]any{"traffic_source": "google"}),
		ev("s2", models.EventPageView, base, map[string]any{"traffic_source": "google"}),
		ev("s3", models.EventPageView, base, map[string]any{"traffic_source": "email"}),
		ev("s3", models.EventCheckoutComplete, base, nil),
	}

	report := utc().Aggregate(events, nil)

	require.Len(t, report.TrafficSources, 2)
	assert.Equal(t, "google", report.TrafficSources[0].Source)
	assert.Equal(t, 50.0, report.TrafficSources[0].Conversion)
	assert.Equal(t, "email", report.TrafficSources[1].Source)
	assert.Equal(t, 100.0, report.TrafficSources[1].Conversion)
}

func TestAggregate_SessionDuration(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventPageView, base, nil),
		ev("s1", models.EventProductView, base.Add(90*time.Second), nil),
		ev("s2", models.EventPageView, base, nil),
	}

	report := utc().Aggregate(events, nil)

	// s1 lasts 90s, s2 contributes 0
	assert.Equal(t, 45.0, report.AvgSessionDuration)
}

func TestAggregate_ZeroTimestamps(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventPageView, time.Time{}, nil),
		ev("s1", models.EventPageView, base, nil),
	}

	report := utc().Aggregate(events, nil)

	assert.Equal(t, 2, report.PageViews)
	assert.Equal(t, 0.0, report.AvgSessionDuration)
	assert.Equal(t, 1, report.HourlyTraffic[10])
}

func TestAggregate_BounceRate(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventPageView, base, nil),
		ev("s1", models.EventCartAdd, base, nil),
		ev("s2", models.EventPageView, base, nil),
		ev("s2", models.EventPageView, base, nil),
		ev("s3", models.EventSearch, base, nil),
		ev("s4", models.EventPageView, base, nil),
	}

	report := utc().Aggregate(events, nil)

	assert.Equal(t, 4, report.TotalSessions)
	assert.Equal(t, 50.0, report.BounceRate)
}

func TestAggregate_CartAbandonment(t *testing.T) {
	tests := []struct {
		name     string
		events   []models.Event
		expected float64
	}{
		{
			name:     "cart without checkout",
			events:   []models.Event{ev("s1", models.EventCartAdd, base, nil)},
			expected: 100,
		},
		{
			name: "cart and checkout in same session",
			events: []models.Event{
				ev("s1", models.EventCartAdd, base, nil),
				ev("s1", models.EventCheckoutStart, base, nil),
			},
			expected: 0,
		},
		{
			name: "half abandoned",
			events: []models.Event{
				ev("s1", models.EventCartAdd, base, nil),
				ev("s1", models.EventCheckoutStart, base, nil),
				ev("s2", models.EventCartAdd, base, nil),
			},
			expected: 50,
		},
		{
			name: "more checkouts than carts",
			events: []models.Event{
				ev("s1", models.EventCartAdd, base, nil),
				ev("s1", models.EventCheckoutStart, base, nil),
				ev("s2", models.EventCheckoutStart, base, nil),
			},
			expected: -100,
		},
		{
			name:     "no carts",
			events:   []models.Event{ev("s1", models.EventCheckoutStart, base, nil)},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := utc().Aggregate(tt.events, nil)
			assert.Equal(t, tt.expected, report.CartAbandonmentRate)
		})
	}
}

func TestAggregate_DeviceBreakdown(t *testing.T) {
	withDevice := func(e models.Event, device string) models.Event {
		e.DeviceType = device
		return e
	}

	t.Run("no device types", func(t *testing.T) {
		events := []models.Event{
			ev("s1", models.EventPageView, base, nil),
			ev("s2", models.EventPageView, base, nil),
		}
		report := utc().Aggregate(events, nil)
		assert.Equal(t, models.DeviceBreakdown{}, report.DeviceBreakdown)
	})

	t.Run("first event decides", func(t *testing.T) {
		events := []models.Event{
			withDevice(ev("s1", models.EventPageView, base, nil), models.DeviceDesktop),
			withDevice(ev("s1", models.EventPageView, base, nil), models.DeviceMobile),
			withDevice(ev("s2", models.EventPageView, base, nil), models.DeviceMobile),
			withDevice(ev("s3", models.EventPageView, base, nil), models.DeviceTablet),
			withDevice(ev("s4", models.EventPageView, base, nil), models.DeviceMobile),
			withDevice(ev("s5", models.EventPageView, base, nil), "smart-tv"),
		}
		report := utc().Aggregate(events, nil)
		assert.Equal(t, 25.0, report.DeviceBreakdown.Desktop)
		assert.Equal(t, 50.0, report.DeviceBreakdown.Mobile)
		assert.Equal(t, 25.0, report.DeviceBreakdown.Tablet)
	})
}

func TestAggregate_TopCountries(t *testing.T) {
	withCountry := func(session, country string) models.Event {
		e := ev(session, models.EventPageView, base, nil)
		e.Country = country
		return e
	}
	events := []models.Event{
		withCountry("s1", "US"),
		withCountry("s1", "US"),
		withCountry("s2", "US"),
		withCountry("s3", ""),
		withCountry("s4", "DE"),
		withCountry("s5", "FR"),
		withCountry("s6", "IT"),
		withCountry("s7", "ES"),
		withCountry("s8", "DE"),
	}

	report := utc().Aggregate(events, nil)

	require.Len(t, report.TopCountries, 5)
	assert.Equal(t, models.CountryStat{Country: "US", Sessions: 2}, report.TopCountries[0])
	assert.Equal(t, models.CountryStat{Country: "DE", Sessions: 2}, report.TopCountries[1])
	assert.Equal(t, "Unknown", report.TopCountries[2].Country)
	assert.Equal(t, "FR", report.TopCountries[3].Country)
	assert.Equal(t, "IT", report.TopCountries[4].Country)
}

func TestAggregate_TopProductsFromEvents(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventProductView, base, map[string]any{"product_name": "Ruby Ring"}),
		ev("s1", models.EventProductView, base, map[string]any{"product_name": "Ruby Ring"}),
		ev("s1", models.EventCartAdd, base, map[string]any{"product_name": "Ruby Ring", "quantity": 2, "cart_value": 400}),
		ev("s2", models.EventProductView, base, map[string]any{"product_name": "Opal Pendant"}),
		ev("s2", models.EventCartAdd, base, map[string]any{"product_name": "Sapphire Studs", "cart_value": 120}),
		ev("s3", models.EventProductView, base, nil),
	}

	report := utc().Aggregate(events, nil)

	require.Len(t, report.TopProducts, 4)
	assert.Equal(t, models.ProductStat{Name: "Ruby Ring", Views: 2, Orders: 2, Revenue: 400, Conversion: 100}, report.TopProducts[0])
	assert.Equal(t, "Opal Pendant", report.TopProducts[1].Name)
	assert.Equal(t, "Unknown Product", report.TopProducts[2].Name)
	assert.Equal(t, models.ProductStat{Name: "Sapphire Studs", Orders: 1, Revenue: 120}, report.TopProducts[3])
}

func TestAggregate_TopProductsFallBackToOrders(t *testing.T) {
	events := []models.Event{ev("s1", models.EventPageView, base, nil)}
	orders := []models.Order{
		{ID: "o1", Total: 700, Items: []models.OrderItem{
			{Name: "Emerald Bracelet", Price: 250, Quantity: 2},
			{Name: "Topaz Earrings", Price: 200, Quantity: 1},
		}},
		{ID: "o2", Total: 250, Items: []models.OrderItem{
			{Name: "Emerald Bracelet", Price: 250, Quantity: 1},
		}},
	}

	report := utc().Aggregate(events, orders)

	require.Len(t, report.TopProducts, 2)
	assert.Equal(t, models.ProductStat{Name: "Emerald Bracelet", Orders: 3, Revenue: 750}, report.TopProducts[0])
	assert.Equal(t, models.ProductStat{Name: "Topaz Earrings", Orders: 1, Revenue: 200}, report.TopProducts[1])
}

func TestAggregate_IgnoresUnknownTypesAndBadPayloads(t *testing.T) {
	events := []models.Event{
		ev("s1", "newsletter_signup", base, map[string]any{"email": "a@b.c"}),
		{SessionID: "s1", EventType: models.EventPageView, Timestamp: base, EventData: json.RawMessage(`{"traffic_source": 42}`)},
		{SessionID: "s1", EventType: models.EventCheckoutComplete, Timestamp: base, EventData: json.RawMessage(`not json`)},
	}

	report := utc().Aggregate(events, nil)

	assert.Equal(t, 1, report.TotalSessions)
	require.Len(t, report.TrafficSources, 1)
	assert.Equal(t, "direct", report.TrafficSources[0].Source)
	assert.Equal(t, 0.0, report.TrafficSources[0].Revenue)
}

func TestAggregate_HourlyTrafficUsesLocation(t *testing.T) {
	events := []models.Event{ev("s1", models.EventPageView, base, nil)}

	tokyo := time.FixedZone("JST", 9*60*60)
	report := New(WithLocation(tokyo)).Aggregate(events, nil)

	assert.Equal(t, 1, report.HourlyTraffic[19])
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	events := []models.Event{
		ev("s1", models.EventPageView, base.Add(time.Minute), nil),
		ev("s1", models.EventPageView, base, nil),
	}
	snapshot := append([]models.Event(nil), events...)

	utc().Aggregate(events, nil)

	assert.Equal(t, snapshot, events)
}

func TestAggregate_WithTopN(t *testing.T) {
	var events []models.Event
	for _, src := range []string{"a", "b", "c"} {
		events = append(events, ev(src, models.EventPageView, base, map[string]any{"traffic_source": src}))
	}

	report := New(WithLocation(time.UTC), WithTopN(2)).Aggregate(events, nil)

	assert.Len(t, report.TrafficSources, 2)
}

func randomEvents(f *gofakeit.Faker, n int) []models.Event {
	types := []string{
		models.EventPageView, models.EventCartAdd, models.EventCartRemove,
		models.EventCheckoutStart, models.EventCheckoutComplete, models.EventProductView,
		models.EventSearch, models.EventPageHidden, models.EventPageUnload, "custom",
	}
	sessions := make([]string, f.Number(1, 20))
	for i := range sessions {
		sessions[i] = f.UUID()
	}
	start := base.Add(-48 * time.Hour)

	events := make([]models.Event, 0, n)
	for i := 0; i < n; i++ {
		e := models.Event{
			ID:         f.UUID(),
			EventType:  f.RandomString(types),
			SessionID:  f.RandomString(sessions),
			Timestamp:  f.DateRange(start, base),
			DeviceType: f.RandomString([]string{models.DeviceDesktop, models.DeviceMobile, models.DeviceTablet}),
			Country:    f.Country(),
		}
		raw, _ := json.Marshal(map[string]any{
			"traffic_source": f.RandomString([]string{"google", "direct", "referral", "email", "instagram", "facebook", "tiktok"}),
			"product_name":   f.RandomString([]string{"Ruby", "Opal", "Jade", "Onyx", "Pearl", "Topaz", "Garnet"}),
			"quantity":       f.Number(1, 3),
			"cart_value":     f.Price(10, 500),
			"order_value":    f.Price(10, 500),
		})
		e.EventData = raw
		events = append(events, e)
	}
	return events
}

func TestAggregate_Properties(t *testing.T) {
	f := gofakeit.New(42)

	for i := 0; i < 50; i++ {
		events := randomEvents(f, f.Number(0, 200))
		report := utc().Aggregate(events, nil)

		distinct := map[string]struct{}{}
		pageViews := 0
		conversions := 0
		for _, e := range events {
			distinct[e.SessionID] = struct{}{}
			switch e.EventType {
			case models.EventPageView:
				pageViews++
			case models.EventCheckoutComplete:
				conversions++
			}
		}

		require.Equal(t, len(distinct), report.TotalSessions)
		require.Equal(t, pageViews, report.PageViews)

		hourly := 0
		for _, n := range report.HourlyTraffic {
			hourly += n
		}
		require.Equal(t, pageViews, hourly)

		require.GreaterOrEqual(t, report.BounceRate, 0.0)
		require.LessOrEqual(t, report.BounceRate, 100.0)

		if report.TotalSessions > 0 {
			require.InDelta(t, float64(conversions)/float64(report.TotalSessions)*100, report.ConversionRate, 1e-9)
			d := report.DeviceBreakdown
			require.InDelta(t, 100, d.Desktop+d.Mobile+d.Tablet, 1e-9)
		}

		require.LessOrEqual(t, len(report.TrafficSources), 5)
		require.LessOrEqual(t, len(report.TopCountries), 5)
		require.LessOrEqual(t, len(report.TopProducts), 5)
		for j := 1; j < len(report.TrafficSources); j++ {
			require.GreaterOrEqual(t, report.TrafficSources[j-1].Sessions, report.TrafficSources[j].Sessions)
		}
		for j := 1; j < len(report.TopCountries); j++ {
			require.GreaterOrEqual(t, report.TopCountries[j-1].Sessions, report.TopCountries[j].Sessions)
		}
		for j := 1; j < len(report.TopProducts); j++ {
			require.GreaterOrEqual(t, report.TopProducts[j-1].Views, report.TopProducts[j].Views)
		}
	}
}
