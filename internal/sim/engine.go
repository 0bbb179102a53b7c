package sim

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/amm"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/clock"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/events"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/farm"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/token"
)

// EngineConfig seeds a simulation engine.
type EngineConfig struct {
	FeeSetter    common.Address
	FarmOwner    common.Address
	EmissionRate *big.Int
	StartTime    uint64
}

// Engine bundles one token ledger, factory and chef sharing a manual clock and
// a common event recorder.
type Engine struct {
	Ledger      *token.Ledger
	Factory     *amm.Factory
	Chef        *farm.Chef
	Clock       *clock.Manual
	Events      *events.Memory
	RewardToken common.Address
}

func deriveID(label string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(label))[12:])
}

// NewEngine builds a fresh engine. Extra sinks receive every event record in
// addition to the engine's own memory buffer; the simulate command hangs its
// stats collector here.
func NewEngine(cfg EngineConfig, logger *zap.Logger, extraSinks ...events.Sink) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	ledger := token.NewLedger()
	manual := clock.NewManual(cfg.StartTime)
	memory := &events.Memory{}
	recorder := events.NewRecorder(append([]events.Sink{memory}, extraSinks...)...)

	factoryID := deriveID("adaswap-factory")
	chefID := deriveID("adaswap-chef")
	rewardToken := deriveID("adaswap-token")

	factory := amm.NewFactory(factoryID, cfg.FeeSetter, ledger, manual, recorder, logger)
	chef := farm.NewChef(chefID, cfg.FarmOwner, rewardToken, ledger, manual, recorder, logger)
	if cfg.EmissionRate != nil && cfg.EmissionRate.Sign() > 0 {
		if err := chef.SetEmissionRate(cfg.FarmOwner, cfg.EmissionRate); err != nil {
			// Owner is the caller we just configured; this cannot fail.
			panic(err)
		}
	}

	return &Engine{
		Ledger:      ledger,
		Factory:     factory,
		Chef:        chef,
		Clock:       manual,
		Events:      memory,
		RewardToken: rewardToken,
	}
}
