package adapter

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	apperrors "github.com/vesting-console/internal/errors"
	"github.com/vesting-console/internal/logging"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid ERC-20 ABI: %v", err))
	}
	return parsed
}

// ChainBackend is the subset of ethclient.Client the panels read through
type ChainBackend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenBalance is an ERC-20 balance in base units
type TokenBalance struct {
	Token    common.Address
	Symbol   string
	Decimals uint8
	Balance  *big.Int
}

// ChainReader reads balances for the dashboard and faucet panels. It sticks to
// the current endpoint until a call fails, then moves to the next one.
type ChainReader struct {
	mu       sync.Mutex
	backends []ChainBackend
	current  int
	logger   *logging.Logger
}

// DialChainReader connects to every non-empty endpoint
func DialChainReader(ctx context.Context, endpoints []string, logger *logging.Logger) (*ChainReader, error) {
	var backends []ChainBackend
	for _, endpoint := range endpoints {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint == "" {
			continue
		}
		client, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			return nil, apperrors.NewChainError("dial "+endpoint, err)
		}
		backends = append(backends, client)
	}
	return NewChainReader(logger, backends...)
}

// NewChainReader creates a reader over already-connected backends
func NewChainReader(logger *logging.Logger, backends ...ChainBackend) (*ChainReader, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("at least one RPC endpoint is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &ChainReader{backends: backends, logger: logger.WithComponent("chain_reader")}, nil
}

// NativeBalance returns the account's native balance in wei
func (r *ChainReader) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := r.withFailover(ctx, "balance", func(b ChainBackend) error {
		var err error
		balance, err = b.BalanceAt(ctx, account, nil)
		return err
	})
	return balance, err
}

// TokenBalance returns the ERC-20 balance, symbol and decimals of token for account
func (r *ChainReader) TokenBalance(ctx context.Context, token, account common.Address) (*TokenBalance, error) {
	result := &TokenBalance{Token: token}

	raw, err := r.call(ctx, token, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	if result.Balance, err = firstOutput[*big.Int]("balanceOf", raw); err != nil {
		return nil, err
	}

	raw, err = r.call(ctx, token, "decimals")
	if err != nil {
		return nil, err
	}
	if result.Decimals, err = firstOutput[uint8]("decimals", raw); err != nil {
		return nil, err
	}

	// Some tokens do not implement symbol(); the balance is still useful without it.
	if raw, err = r.call(ctx, token, "symbol"); err == nil {
		if symbol, ok := raw[0].(string); ok {
			result.Symbol = symbol
		}
	}

	return result, nil
}

func (r *ChainReader) call(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	var out []byte
	err = r.withFailover(ctx, method, func(b ChainBackend) error {
		var err error
		out, err = b.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	values, err := erc20ABI.Unpack(method, out)
	if err != nil || len(values) == 0 {
		return nil, apperrors.NewChainError(method, fmt.Errorf("failed to unpack output: %v", err))
	}
	return values, nil
}

// firstOutput returns the first unpacked value of method as T
func firstOutput[T any](method string, values []interface{}) (T, error) {
	var zero T
	if len(values) == 0 {
		return zero, apperrors.NewChainError(method, fmt.Errorf("empty output"))
	}
	v, ok := values[0].(T)
	if !ok {
		return zero, apperrors.NewChainError(method, fmt.Errorf("unexpected output type %T", values[0]))
	}
	return v, nil
}

func (r *ChainReader) withFailover(ctx context.Context, op string, fn func(ChainBackend) error) error {
	r.mu.Lock()
	start := r.current
	r.mu.Unlock()

	var lastErr error
	for i := 0; i < len(r.backends); i++ {
		if err := ctx.Err(); err != nil {
			return apperrors.NewChainError(op, err)
		}

		idx := (start + i) % len(r.backends)
		if lastErr = fn(r.backends[idx]); lastErr == nil {
			if idx != start {
				r.mu.Lock()
				r.current = idx
				r.mu.Unlock()
				r.logger.WithFields(map[string]interface{}{
					"operation": op,
					"endpoint":  idx,
				}).Warn("switched RPC endpoint after failure")
			}
			return nil
		}
	}

	return apperrors.NewChainError(op, lastErr)
}
