package models

import "encoding/json"

// EventPayload is the decoded event_data of an Event. The concrete type
// depends on the event type; see Event.Payload.
type EventPayload interface {
	payloadType() string
}

type PageViewData struct {
	TrafficSource string `json:"traffic_source,omitempty"`
	PagePath      string `json:"page_path,omitempty"`
	Referrer      string `json:"referrer,omitempty"`
}

// Source returns the traffic source, "direct" when none was recorded.
func (d PageViewData) Source() string {
	if d.TrafficSource == "" {
		return "direct"
	}
	return d.TrafficSource
}

type ProductViewData struct {
	ProductID   string  `json:"product_id,omitempty"`
	ProductName string  `json:"product_name,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// CartData is shared by cart_add and cart_remove.
type CartData struct {
	ProductID   string  `json:"product_id,omitempty"`
	ProductName string  `json:"product_name,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Quantity    int     `json:"quantity,omitempty"`
	CartValue   float64 `json:"cart_value,omitempty"`
}

// Units returns the quantity, defaulting to 1 when unset.
func (d CartData) Units() int {
	if d.Quantity == 0 {
		return 1
	}
	return d.Quantity
}

type CheckoutStartData struct {
	CartValue float64 `json:"cart_value,omitempty"`
	ItemCount int     `json:"item_count,omitempty"`
}

type CheckoutCompleteData struct {
	OrderID    string  `json:"order_id,omitempty"`
	OrderValue float64 `json:"order_value,omitempty"`
}

type SearchData struct {
	Query        string `json:"query,omitempty"`
	ResultsCount int    `json:"results_count,omitempty"`
}

// PageLifecycleData is shared by page_hidden and page_unload.
type PageLifecycleData struct {
	PagePath     string `json:"page_path,omitempty"`
	TimeOnPageMs int64  `json:"time_on_page_ms,omitempty"`
}

// UnknownData carries the raw payload of an unrecognized event type.
type UnknownData struct {
	Raw json.RawMessage
}

// ProductLabel returns the product name, "Unknown Product" when absent.
func ProductLabel(name string) string {
	if name == "" {
		return "Unknown Product"
	}
	return name
}

func (PageViewData) payloadType() string         { return EventPageView }
func (ProductViewData) payloadType() string      { return EventProductView }
func (CartData) payloadType() string             { return EventCartAdd }
func (CheckoutStartData) payloadType() string    { return EventCheckoutStart }
func (CheckoutCompleteData) payloadType() string { return EventCheckoutComplete }
func (SearchData) payloadType() string           { return EventSearch }
func (PageLifecycleData) payloadType() string    { return EventPageHidden }
func (UnknownData) payloadType() string          { return "" }
