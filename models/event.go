// api/models/event.go
package models

import (
	"encoding/json"
	"time"
)

// Tracked event types. The vocabulary is open: anything else is carried
// through storage untouched and ignored by the aggregator.
const (
	EventPageView         = "page_view"
	EventCartAdd          = "cart_add"
	EventCartRemove       = "cart_remove"
	EventCheckoutStart    = "checkout_start"
	EventCheckoutComplete = "checkout_complete"
	EventProductView      = "product_view"
	EventSearch           = "search"
	EventPageHidden       = "page_hidden"
	EventPageUnload       = "page_unload"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Event represents a single tracked storefront interaction.
type Event struct {
	ID            string          `json:"id"`
	EventType     string          `json:"event_type"`
	SessionID     string          `json:"session_id"`
	Timestamp     time.Time       `json:"timestamp"`
	DeviceType    string          `json:"device_type,omitempty"`
	Country       string          `json:"country,omitempty"`
	EventData     json.RawMessage `json:"event_data,omitempty"`
	IsTestSession bool            `json:"is_test_session"`
}

// Payload decodes EventData into the variant matching EventType.
// A missing or malformed payload yields the zero value of that variant.
func (e Event) Payload() EventPayload {
	switch e.EventType {
	case EventPageView:
		return decodePayload[PageViewData](e.EventData)
	case EventProductView:
		return decodePayload[ProductViewData](e.EventData)
	case EventCartAdd, EventCartRemove:
		return decodePayload[CartData](e.EventData)
	case EventCheckoutStart:
		return decodePayload[CheckoutStartData](e.EventData)
	case EventCheckoutComplete:
		return decodePayload[CheckoutCompleteData](e.EventData)
	case EventSearch:
		return decodePayload[SearchData](e.EventData)
	case EventPageHidden, EventPageUnload:
		return decodePayload[PageLifecycleData](e.EventData)
	default:
		return UnknownData{Raw: e.EventData}
	}
}

func decodePayload[T EventPayload](raw json.RawMessage) T {
	var d T
	if len(raw) == 0 {
		return d
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		var zero T
		return zero
	}
	return d
}
