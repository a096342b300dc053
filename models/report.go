package models

// MetricsReport is the dashboard summary built from one window of events.
type MetricsReport struct {
	TotalSessions       int             `json:"totalSessions"`
	PageViews           int             `json:"pageViews"`
	BounceRate          float64         `json:"bounceRate"`
	AvgSessionDuration  float64         `json:"avgSessionDuration"`
	ConversionRate      float64         `json:"conversionRate"`
	TrafficSources      []TrafficSource `json:"trafficSources"`
	TopCountries        []CountryStat   `json:"topCountries"`
	DeviceBreakdown     DeviceBreakdown `json:"deviceBreakdown"`
	HourlyTraffic       [24]int         `json:"hourlyTraffic"`
	CartAbandonmentRate float64         `json:"cartAbandonmentRate"`
	TopProducts         []ProductStat   `json:"topProducts"`
}

type TrafficSource struct {
	Source     string  `json:"source"`
	Sessions   int     `json:"sessions"`
	Revenue    float64 `json:"revenue"`
	Conversion float64 `json:"conversion"`
}

type CountryStat struct {
	Country  string  `json:"country"`
	Sessions int     `json:"sessions"`
	Revenue  float64 `json:"revenue"`
}

// DeviceBreakdown holds percentages of classified sessions.
type DeviceBreakdown struct {
	Desktop float64 `json:"desktop"`
	Mobile  float64 `json:"mobile"`
	Tablet  float64 `json:"tablet"`
}

type ProductStat struct {
	Name       string  `json:"name"`
	Views      int     `json:"views"`
	Orders     int     `json:"orders"`
	Revenue    float64 `json:"revenue"`
	Conversion float64 `json:"conversion"`
}
