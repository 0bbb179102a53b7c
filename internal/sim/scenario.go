package sim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Op is one scenario operation. Fields are optional; which ones apply depends
// on the op name. Big integer amounts are decimal strings.
type Op struct {
	Op string `json:"op"`

	Token  string `json:"token,omitempty"`
	TokenA string `json:"token_a,omitempty"`
	TokenB string `json:"token_b,omitempty"`

	Caller string `json:"caller,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`

	Amount     string `json:"amount,omitempty"`
	Amount0Out string `json:"amount0_out,omitempty"`
	Amount1Out string `json:"amount1_out,omitempty"`

	PoolID      uint64   `json:"pool_id,omitempty"`
	LockTier    uint8    `json:"lock_tier,omitempty"`
	AllocPoints []uint64 `json:"alloc_points,omitempty"`
	AllocPoint  uint64   `json:"alloc_point,omitempty"`
	StakeToken  string   `json:"stake_token,omitempty"`
	Rate        string   `json:"rate,omitempty"`

	Seconds uint64 `json:"seconds,omitempty"`
	Address string `json:"address,omitempty"`
}

// ReadScenario loads scenario operations from a JSONL file.
func ReadScenario(path string) ([]Op, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer file.Close()

	var ops []Op
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var op Op
		if err := json.Unmarshal(raw, &op); err != nil {
			return nil, fmt.Errorf("parse scenario line %d: %w", line, err)
		}
		if op.Op == "" {
			return nil, fmt.Errorf("scenario line %d: missing op", line)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ops, nil
}
