package model

import "encoding/json"

// Event sources.
const (
	SourcePair    = "pair"
	SourceFactory = "factory"
	SourceFarm    = "farm"
)

// EventRecord is the durable form of one engine event. Exactly one record is
// produced per logical state change, with post-state values in the payload.
type EventRecord struct {
	Seq       uint64          `json:"seq"`
	Timestamp uint64          `json:"timestamp"`
	Source    string          `json:"source"`
	Contract  string          `json:"contract"`
	EventName string          `json:"event_name"`
	Data      json.RawMessage `json:"data"`
}
