package domain

import "time"

// Received is a payload accepted by the collector, as stored by it.
type Received struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Metrics    []Metric  `json:"metrics"`
	ReceivedAt time.Time `json:"received_at"`
}
