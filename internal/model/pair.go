package model

// Pair is the pair metadata record for storage.
type Pair struct {
	PairID    string `json:"pair_id"`
	Token0    string `json:"token0"`
	Token1    string `json:"token1"`
	PairIndex uint64 `json:"pair_index"`
	CreatedAt uint64 `json:"created_at"`
}
