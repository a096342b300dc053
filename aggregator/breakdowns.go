package aggregator

import (
	"sort"

	"gemstore/api/models"
)

const unknownCountry = "Unknown"

// tally accumulates per-key counters and remembers first-seen key order so
// ranked output is deterministic for equal counts.
type tally[T any] struct {
	keys []string
	vals map[string]*T
}

func newTally[T any]() *tally[T] {
	return &tally[T]{vals: make(map[string]*T)}
}

func (t *tally[T]) get(key string) *T {
	v, ok := t.vals[key]
	if !ok {
		v = new(T)
		t.vals[key] = v
		t.keys = append(t.keys, key)
	}
	return v
}

type sessionSet map[string]struct{}

func (s sessionSet) add(id string) { s[id] = struct{}{} }

type sourceAcc struct {
	sessions sessionSet
	revenue  float64
}

func pageViewSource(e models.Event) string {
	d, _ := e.Payload().(models.PageViewData)
	return d.Source()
}

// trafficSources ranks sources by the number of sessions that landed through
// them. Revenue from each completed checkout goes to the source of that
// session's first page view. The per-source conversion divides the global
// conversion count by the source's sessions.
func (a *Aggregator) trafficSources(events []models.Event, sessions []Session, conversions int) []models.TrafficSource {
	acc := newTally[sourceAcc]()
	source := func(name string) *sourceAcc {
		s := acc.get(name)
		if s.sessions == nil {
			s.sessions = make(sessionSet)
		}
		return s
	}

	for _, e := range events {
		if e.EventType == models.EventPageView {
			source(pageViewSource(e)).sessions.add(e.SessionID)
		}
	}

	byID := make(map[string]Session, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
	}
	for _, e := range events {
		if e.EventType != models.EventCheckoutComplete {
			continue
		}
		name := "direct"
		if first, ok := FirstEventOfType(byID[e.SessionID].Events, models.EventPageView); ok {
			name = pageViewSource(first)
		}
		d, _ := e.Payload().(models.CheckoutCompleteData)
		source(name).revenue += d.OrderValue
	}

	out := make([]models.TrafficSource, 0, len(acc.keys))
	for _, name := range acc.keys {
		s := acc.vals[name]
		ts := models.TrafficSource{
			Source:   name,
			Sessions: len(s.sessions),
			Revenue:  s.revenue,
		}
		if ts.Sessions > 0 {
			ts.Conversion = float64(conversions) / float64(ts.Sessions) * 100
		}
		out = append(out, ts)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sessions > out[j].Sessions
	})
	if len(out) > a.topN {
		out = out[:a.topN]
	}
	return out
}

func (a *Aggregator) topCountries(events []models.Event) []models.CountryStat {
	acc := newTally[sessionSet]()
	for _, e := range events {
		country := e.Country
		if country == "" {
			country = unknownCountry
		}
		set := acc.get(country)
		if *set == nil {
			*set = make(sessionSet)
		}
		set.add(e.SessionID)
	}

	out := make([]models.CountryStat, 0, len(acc.keys))
	for _, country := range acc.keys {
		out = append(out, models.CountryStat{
			Country:  country,
			Sessions: len(*acc.vals[country]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sessions > out[j].Sessions
	})
	if len(out) > a.topN {
		out = out[:a.topN]
	}
	return out
}

// deviceBreakdown classifies each session by the device type of its first
// event in input order. Sessions without a recognized device are left out of
// the denominator.
func deviceBreakdown(events []models.Event) models.DeviceBreakdown {
	seen := make(sessionSet)
	var desktop, mobile, tablet int
	for _, e := range events {
		if _, ok := seen[e.SessionID]; ok {
			continue
		}
		seen.add(e.SessionID)
		switch e.DeviceType {
		case models.DeviceDesktop:
			desktop++
		case models.DeviceMobile:
			mobile++
		case models.DeviceTablet:
			tablet++
		}
	}

	total := desktop + mobile + tablet
	if total == 0 {
		return models.DeviceBreakdown{}
	}
	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }
	return models.DeviceBreakdown{
		Desktop: pct(desktop),
		Mobile:  pct(mobile),
		Tablet:  pct(tablet),
	}
}

// cartAbandonmentRate is not clamped: more checkout sessions than cart
// sessions yields a negative rate.
func cartAbandonmentRate(events []models.Event) float64 {
	carts := make(sessionSet)
	checkouts := make(sessionSet)
	for _, e := range events {
		switch e.EventType {
		case models.EventCartAdd:
			carts.add(e.SessionID)
		case models.EventCheckoutStart:
			checkouts.add(e.SessionID)
		}
	}
	if len(carts) == 0 {
		return 0
	}
	return float64(len(carts)-len(checkouts)) / float64(len(carts)) * 100
}

type productAcc struct {
	views   int
	orders  int
	revenue float64
}

// topProducts counts product views and cart additions per product name. When
// no event mentions a product, order line items supply orders and revenue.
func (a *Aggregator) topProducts(events []models.Event, orders []models.Order) []models.ProductStat {
	acc := newTally[productAcc]()
	for _, e := range events {
		switch e.EventType {
		case models.EventProductView:
			d, _ := e.Payload().(models.ProductViewData)
			acc.get(models.ProductLabel(d.ProductName)).views++
		case models.EventCartAdd:
			d, _ := e.Payload().(models.CartData)
			p := acc.get(models.ProductLabel(d.ProductName))
			p.orders += d.Units()
			p.revenue += d.CartValue
		}
	}

	if len(acc.keys) == 0 {
		for _, o := range orders {
			for _, item := range o.Items {
				p := acc.get(models.ProductLabel(item.Name))
				p.orders += item.Quantity
				p.revenue += item.Price * float64(item.Quantity)
			}
		}
	}

	out := make([]models.ProductStat, 0, len(acc.keys))
	for _, name := range acc.keys {
		p := acc.vals[name]
		ps := models.ProductStat{
			Name:    name,
			Views:   p.views,
			Orders:  p.orders,
			Revenue: p.revenue,
		}
		if p.views > 0 {
			ps.Conversion = float64(p.orders) / float64(p.views) * 100
		}
		out = append(out, ps)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Orders > out[j].Orders
	})
	if len(out) > a.topN {
		out = out[:a.topN]
	}
	return out
}
