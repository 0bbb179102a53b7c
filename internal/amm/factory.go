package amm

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/clock"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/events"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/token"
)

// PairSchemaVersion is hashed into every pair ID; bumping it when the pair
// semantics change gives a new identifier space, the way a new init code hash
// would on chain.
const PairSchemaVersion = "adaswap-pair-v1"

var pairSchemaHash = crypto.Keccak256([]byte(PairSchemaVersion))

// Factory creates and indexes pairs. One pair exists per unordered token tuple;
// fee collection is governed by a single fee-setter key.
type Factory struct {
	ID common.Address

	feeTo       common.Address
	feeToSetter common.Address

	pairs    map[common.Address]map[common.Address]*Pair
	allPairs []*Pair

	ledger   *token.Ledger
	clock    clock.Clock
	recorder *events.Recorder
	logger   *zap.Logger
}

func NewFactory(id, feeToSetter common.Address, ledger *token.Ledger, clk clock.Clock, recorder *events.Recorder, logger *zap.Logger) *Factory {
	return &Factory{
		ID:          id,
		feeToSetter: feeToSetter,
		pairs:       make(map[common.Address]map[common.Address]*Pair),
		ledger:      ledger,
		clock:       clk,
		recorder:    recorder,
		logger:      logger,
	}
}

// SortTokens returns the tokens in canonical (ascending) order.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, common.Address{}, ErrIdenticalTokens
	}
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) > 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	if tokenA == (common.Address{}) {
		return common.Address{}, common.Address{}, ErrZeroAddress
	}
	return tokenA, tokenB, nil
}

// PairIDFor derives the content-addressed pair identifier from the factory ID
// and the sorted token tuple. The ID is computable before the pair exists.
func PairIDFor(factoryID, tokenA, tokenB common.Address) (common.Address, error) {
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	salt := crypto.Keccak256(token0.Bytes(), token1.Bytes())
	digest := crypto.Keccak256([]byte{0xff}, factoryID.Bytes(), salt, pairSchemaHash)
	return common.BytesToAddress(digest[12:]), nil
}

// CreatePair registers a new pair for the unordered tuple (tokenA, tokenB).
func (f *Factory) CreatePair(tokenA, tokenB common.Address) (*Pair, error) {
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	if f.pairs[token0][token1] != nil {
		return nil, ErrPairExists
	}

	id, err := PairIDFor(f.ID, token0, token1)
	if err != nil {
		return nil, err
	}

	pair := &Pair{
		ID:                   id,
		Token0:               token0,
		Token1:               token1,
		CreatedAt:            f.clock.Now(),
		reserve0:             big.NewInt(0),
		reserve1:             big.NewInt(0),
		Price0CumulativeLast: big.NewInt(0),
		Price1CumulativeLast: big.NewInt(0),
		KLast:                big.NewInt(0),
		factory:              f,
		ledger:               f.ledger,
		clock:                f.clock,
		recorder:             f.recorder,
		logger:               f.logger,
	}

	if f.pairs[token0] == nil {
		f.pairs[token0] = make(map[common.Address]*Pair)
	}
	if f.pairs[token1] == nil {
		f.pairs[token1] = make(map[common.Address]*Pair)
	}
	f.pairs[token0][token1] = pair
	f.pairs[token1][token0] = pair
	f.allPairs = append(f.allPairs, pair)

	index := uint64(len(f.allPairs) - 1)
	f.recorder.Emit(f.clock.Now(), model.SourceFactory, f.ID.Hex(), "PairCreated", model.PairCreatedEventData{
		Token0:    token0.Hex(),
		Token1:    token1.Hex(),
		Pair:      id.Hex(),
		PairIndex: index,
	})
	f.logger.Info("pair created",
		zap.String("token0", token0.Hex()),
		zap.String("token1", token1.Hex()),
		zap.String("pair", id.Hex()),
		zap.Uint64("index", index),
	)
	return pair, nil
}

// Pair returns the pair for the unordered tuple, or nil.
func (f *Factory) Pair(tokenA, tokenB common.Address) *Pair {
	return f.pairs[tokenA][tokenB]
}

// AllPairs returns the pairs in creation order.
func (f *Factory) AllPairs() []*Pair {
	return f.allPairs
}

func (f *Factory) AllPairsLength() int {
	return len(f.allPairs)
}

func (f *Factory) FeeTo() common.Address {
	return f.feeTo
}

func (f *Factory) FeeToSetter() common.Address {
	return f.feeToSetter
}

// SetFeeTo changes the protocol fee recipient; only the fee setter may call it.
func (f *Factory) SetFeeTo(caller, feeTo common.Address) error {
	if caller != f.feeToSetter {
		return ErrForbidden
	}
	f.feeTo = feeTo
	return nil
}

// SetFeeToSetter hands the fee-setter key over; only the current setter may call it.
func (f *Factory) SetFeeToSetter(caller, feeToSetter common.Address) error {
	if caller != f.feeToSetter {
		return ErrForbidden
	}
	f.feeToSetter = feeToSetter
	return nil
}
