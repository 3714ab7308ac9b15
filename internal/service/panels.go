package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vesting-console/internal/adapter"
	apperrors "github.com/vesting-console/internal/errors"
	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/recipients"
	"github.com/vesting-console/internal/types"
)

// Panel actions reported in previews
const (
	ActionPayroll = "payroll"
	ActionVesting = "vesting"
	ActionLock    = "lock"
	ActionFaucet  = "faucet"
)

// MaxScheduleSeconds caps a vesting duration at 100 years, well inside time.Duration
const MaxScheduleSeconds int64 = 100 * 365 * 24 * 60 * 60

// BalanceReader reads on-chain balances for the dashboard
type BalanceReader interface {
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*adapter.TokenBalance, error)
}

// TxSubmitter hands prepared requests to the wallet, which signs and sends
// them. Each method returns the transaction hash.
type TxSubmitter interface {
	SubmitBatch(ctx context.Context, transfer BatchTransfer) (string, error)
	SubmitVesting(ctx context.Context, schedule VestingSchedule) (string, error)
	SubmitLock(ctx context.Context, lock LockOrder) (string, error)
	ClaimFaucet(ctx context.Context, claim FaucetClaim) (string, error)
}

// BatchTransfer is a payroll distribution of one token
type BatchTransfer struct {
	Chain    types.ChainID
	Token    common.Address
	Decimals int32
	Batch    *recipients.Batch
}

// VestingTerms is the investor payment form as submitted by the console
type VestingTerms struct {
	Token           string    `json:"token"`
	Decimals        int32     `json:"decimals"`
	Start           time.Time `json:"start"`
	CliffSeconds    int64     `json:"cliffSeconds"`
	DurationSeconds int64     `json:"durationSeconds"`
	Revocable       bool      `json:"revocable"`
}

// VestingSchedule is validated VestingTerms plus the recipient batch
type VestingSchedule struct {
	Chain     types.ChainID
	Token     common.Address
	Start     time.Time
	Cliff     time.Duration
	Duration  time.Duration
	Revocable bool
	Batch     *recipients.Batch
}

// LockRequest is the time-lock form
type LockRequest struct {
	Token       string    `json:"token"`
	Decimals    int32     `json:"decimals"`
	Amount      string    `json:"amount"`
	UnlockAt    time.Time `json:"unlockAt"`
	Beneficiary string    `json:"beneficiary,omitempty"`
}

// LockOrder is a validated LockRequest
type LockOrder struct {
	Chain       types.ChainID
	Token       common.Address
	Amount      *big.Int
	UnlockAt    time.Time
	Beneficiary common.Address
}

// FaucetClaim asks the test token faucet for funds
type FaucetClaim struct {
	Chain  types.ChainID
	Wallet common.Address
	Token  common.Address
}

// Preview describes a panel request. Submitted is false when no wallet
// submitter is attached and the request was only prepared.
type Preview struct {
	Action     string                 `json:"action"`
	Chain      types.ChainID          `json:"chain"`
	Submitted  bool                   `json:"submitted"`
	TxHash     string                 `json:"txHash,omitempty"`
	Token      string                 `json:"token,omitempty"`
	Recipients []string               `json:"recipients,omitempty"`
	Amounts    []string               `json:"amounts,omitempty"`
	Total      string                 `json:"total,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// TokenBalanceView is one dashboard token row
type TokenBalanceView struct {
	Token     string `json:"token"`
	Symbol    string `json:"symbol,omitempty"`
	Decimals  uint8  `json:"decimals"`
	Balance   string `json:"balance"`
	Formatted string `json:"formatted"`
}

// WalletBalances is the dashboard summary for one wallet
type WalletBalances struct {
	Wallet          string             `json:"wallet"`
	Chain           types.ChainID      `json:"chain"`
	Native          string             `json:"native"`
	NativeFormatted string             `json:"nativeFormatted"`
	Tokens          []TokenBalanceView `json:"tokens"`
}

// PanelServiceConfig wires the panel service. Reader and Submitter may be nil.
type PanelServiceConfig struct {
	Chain     types.ChainID
	Reader    BalanceReader
	Submitter TxSubmitter
	Logger    *logging.Logger
}

// PanelService builds the requests behind the dashboard, payroll, investor
// payment, lock and faucet panels. Vesting math and custody stay on chain.
type PanelService struct {
	chain     types.ChainID
	reader    BalanceReader
	submitter TxSubmitter
	logger    *logging.Logger
	now       func() time.Time
}

// NewPanelService creates a panel service
func NewPanelService(cfg *PanelServiceConfig) *PanelService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	chain := cfg.Chain
	if chain == "" {
		chain = types.ChainEthereum
	}
	return &PanelService{
		chain:     chain,
		reader:    cfg.Reader,
		submitter: cfg.Submitter,
		logger:    logger.WithComponent("panels"),
		now:       time.Now,
	}
}

// Balances reads the wallet's native balance and each token balance
func (s *PanelService) Balances(ctx context.Context, wallet string, tokens []string) (*WalletBalances, error) {
	if s.reader == nil {
		return nil, apperrors.NewServiceUnavailableError("chain RPC")
	}
	account, err := parseAddress("wallet", wallet)
	if err != nil {
		return nil, err
	}

	native, err := s.reader.NativeBalance(ctx, account)
	if err != nil {
		return nil, err
	}

	result := &WalletBalances{
		Wallet:          account.Hex(),
		Chain:           s.chain,
		Native:          native.String(),
		NativeFormatted: recipients.FormatAmount(native, 18),
		Tokens:          []TokenBalanceView{},
	}

	for _, raw := range tokens {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		token, err := parseAddress("token", raw)
		if err != nil {
			return nil, err
		}
		balance, err := s.reader.TokenBalance(ctx, token, account)
		if err != nil {
			return nil, err
		}
		result.Tokens = append(result.Tokens, TokenBalanceView{
			Token:     balance.Token.Hex(),
			Symbol:    balance.Symbol,
			Decimals:  balance.Decimals,
			Balance:   balance.Balance.String(),
			Formatted: recipients.FormatAmount(balance.Balance, int32(balance.Decimals)),
		})
	}

	return result, nil
}

// SubmitPayroll sends the composed recipients as one batch transfer of token.
// The composer is reset once the wallet accepted the batch.
func (s *PanelService) SubmitPayroll(ctx context.Context, composer *recipients.Composer, token string, decimals int32) (*Preview, error) {
	tokenAddr, err := parseAddress("token", token)
	if err != nil {
		return nil, err
	}
	batch, err := composer.Batch(decimals)
	if err != nil {
		return nil, err
	}

	preview := s.batchPreview(ActionPayroll, tokenAddr, batch, decimals)
	if s.submitter == nil {
		return preview, nil
	}

	hash, err := s.submitter.SubmitBatch(ctx, BatchTransfer{
		Chain:    s.chain,
		Token:    tokenAddr,
		Decimals: decimals,
		Batch:    batch,
	})
	if err != nil {
		return nil, apperrors.NewChainError("submit payroll", err)
	}

	composer.Reset()
	s.submitted(preview, hash)
	return preview, nil
}

// SubmitVesting creates one vesting schedule per composed recipient
func (s *PanelService) SubmitVesting(ctx context.Context, composer *recipients.Composer, terms VestingTerms) (*Preview, error) {
	tokenAddr, err := parseAddress("token", terms.Token)
	if err != nil {
		return nil, err
	}
	if terms.Start.IsZero() {
		return nil, apperrors.NewValidationError("start", "is required")
	}
	if terms.DurationSeconds <= 0 {
		return nil, apperrors.NewValidationError("durationSeconds", "must be greater than zero")
	}
	if terms.DurationSeconds > MaxScheduleSeconds {
		return nil, apperrors.NewValidationError("durationSeconds", fmt.Sprintf("must be at most %d", MaxScheduleSeconds))
	}
	if terms.CliffSeconds < 0 || terms.CliffSeconds > terms.DurationSeconds {
		return nil, apperrors.NewValidationError("cliffSeconds", "must be between zero and the duration")
	}

	batch, err := composer.Batch(terms.Decimals)
	if err != nil {
		return nil, err
	}

	schedule := VestingSchedule{
		Chain:     s.chain,
		Token:     tokenAddr,
		Start:     terms.Start.UTC(),
		Cliff:     time.Duration(terms.CliffSeconds) * time.Second,
		Duration:  time.Duration(terms.DurationSeconds) * time.Second,
		Revocable: terms.Revocable,
		Batch:     batch,
	}

	preview := s.batchPreview(ActionVesting, tokenAddr, batch, terms.Decimals)
	preview.Details = map[string]interface{}{
		"start":     schedule.Start,
		"cliffEnd":  schedule.Start.Add(schedule.Cliff),
		"end":       schedule.Start.Add(schedule.Duration),
		"revocable": schedule.Revocable,
	}
	if s.submitter == nil {
		return preview, nil
	}

	hash, err := s.submitter.SubmitVesting(ctx, schedule)
	if err != nil {
		return nil, apperrors.NewChainError("submit vesting", err)
	}

	composer.Reset()
	s.submitted(preview, hash)
	return preview, nil
}

// SubmitLock locks an amount of token until UnlockAt. The beneficiary
// defaults to the connected wallet.
func (s *PanelService) SubmitLock(ctx context.Context, wallet string, req LockRequest) (*Preview, error) {
	tokenAddr, err := parseAddress("token", req.Token)
	if err != nil {
		return nil, err
	}
	if req.Decimals < 0 || req.Decimals > recipients.MaxDecimals {
		return nil, apperrors.NewValidationError("decimals", fmt.Sprintf("must be between 0 and %d", recipients.MaxDecimals))
	}
	amount, err := recipients.ParseAmount(req.Amount, req.Decimals)
	if err != nil {
		return nil, apperrors.NewValidationError("amount", err.Error())
	}
	if !req.UnlockAt.After(s.now()) {
		return nil, apperrors.NewValidationError("unlockAt", "must be in the future")
	}

	beneficiaryRaw := req.Beneficiary
	if strings.TrimSpace(beneficiaryRaw) == "" {
		beneficiaryRaw = wallet
	}
	beneficiary, err := parseAddress("beneficiary", beneficiaryRaw)
	if err != nil {
		return nil, err
	}

	order := LockOrder{
		Chain:       s.chain,
		Token:       tokenAddr,
		Amount:      amount,
		UnlockAt:    req.UnlockAt.UTC(),
		Beneficiary: beneficiary,
	}

	preview := &Preview{
		Action:     ActionLock,
		Chain:      s.chain,
		Token:      tokenAddr.Hex(),
		Recipients: []string{beneficiary.Hex()},
		Amounts:    []string{amount.String()},
		Total:      recipients.FormatAmount(amount, req.Decimals),
		Details:    map[string]interface{}{"unlockAt": order.UnlockAt},
	}
	if s.submitter == nil {
		return preview, nil
	}

	hash, err := s.submitter.SubmitLock(ctx, order)
	if err != nil {
		return nil, apperrors.NewChainError("submit lock", err)
	}
	s.submitted(preview, hash)
	return preview, nil
}

// ClaimFaucet requests test tokens for wallet
func (s *PanelService) ClaimFaucet(ctx context.Context, wallet, token string) (*Preview, error) {
	walletAddr, err := parseAddress("wallet", wallet)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := parseAddress("token", token)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		Action:     ActionFaucet,
		Chain:      s.chain,
		Token:      tokenAddr.Hex(),
		Recipients: []string{walletAddr.Hex()},
	}
	if s.submitter == nil {
		return preview, nil
	}

	hash, err := s.submitter.ClaimFaucet(ctx, FaucetClaim{Chain: s.chain, Wallet: walletAddr, Token: tokenAddr})
	if err != nil {
		return nil, apperrors.NewChainError("claim faucet", err)
	}
	s.submitted(preview, hash)
	return preview, nil
}

func (s *PanelService) batchPreview(action string, token common.Address, batch *recipients.Batch, decimals int32) *Preview {
	preview := &Preview{
		Action:     action,
		Chain:      s.chain,
		Token:      token.Hex(),
		Recipients: make([]string, len(batch.Recipients)),
		Amounts:    make([]string, len(batch.Amounts)),
		Total:      recipients.FormatAmount(batch.Total, decimals),
	}
	for i, addr := range batch.Recipients {
		preview.Recipients[i] = addr.Hex()
		preview.Amounts[i] = batch.Amounts[i].String()
	}
	return preview
}

func (s *PanelService) submitted(preview *Preview, hash string) {
	preview.Submitted = true
	preview.TxHash = hash
	s.logger.WithFields(map[string]interface{}{
		"action":  preview.Action,
		"chain":   preview.Chain,
		"tx_hash": hash,
	}).Info("panel request submitted")
}

func parseAddress(field, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, apperrors.NewValidationError(field, "not a valid address")
	}
	return common.HexToAddress(raw), nil
}
