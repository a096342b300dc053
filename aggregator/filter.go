package aggregator

import "gemstore/api/models"

// FilterEvents keeps the events whose test flag matches mode: dev keeps only
// test sessions, live drops them. The input slice is not modified.
func FilterEvents(events []models.Event, mode models.Mode) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.IsTestSession == mode.IncludesTest() {
			out = append(out, e)
		}
	}
	return out
}

// FilterOrders applies the same rule to orders.
func FilterOrders(orders []models.Order, mode models.Mode) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.IsTest == mode.IncludesTest() {
			out = append(out, o)
		}
	}
	return out
}
