package storage

import "github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"

// Storage defines a durable sink for engine event records.
type Storage interface {
	PutEventBatch(records []model.EventRecord) error
}
