package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loanmarket/internal/client/near"
	"loanmarket/internal/models"
	"loanmarket/internal/repository"
)

var (
	ErrLoanNotTradeable = errors.New("loan must be active for trading")
	ErrInvalidFraction  = errors.New("fraction must be between 1 and 10000 basis points")
	ErrTxNotFound       = errors.New("transaction not found")
)

type TradeService struct {
	Repo   repository.Repository
	Chain  *near.Client
	Logger *zap.Logger
}

type InitiateTransactionInput struct {
	LoanID       string  `json:"loan_id"`
	BuyerAccount string  `json:"buyer_account"`
	Fraction     int     `json:"fraction"`
	Price        float64 `json:"price"`
}

// InitiateTransaction records a fractional purchase and settles it on chain.
// The record is written PENDING first so a settlement failure leaves an
// auditable FAILED row instead of nothing.
func (s *TradeService) InitiateTransaction(ctx context.Context, input InitiateTransactionInput) (*models.Transaction, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("trade service not configured")
	}
	if input.Fraction <= 0 || input.Fraction > 10000 {
		return nil, ErrInvalidFraction
	}
	if strings.TrimSpace(input.BuyerAccount) == "" {
		return nil, errors.New("buyer account is required")
	}

	loan, err := s.Repo.GetLoanByLoanID(ctx, input.LoanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("%w: %s", ErrLoanNotFound, input.LoanID)
	}
	if loan.Status != models.LoanStatusActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrLoanNotTradeable, loan.LoanID, loan.Status)
	}

	tokenID := fmt.Sprintf("LOAN-TOKEN-%d", loan.ID)
	if loan.OnChainTokenID != nil {
		tokenID = *loan.OnChainTokenID
	}

	item := &models.Transaction{
		TransactionID: "TXN-" + strings.ToUpper(uuid.NewString()[:12]),
		LoanID:        loan.ID,
		BuyerAccount:  input.BuyerAccount,
		SellerAccount: loan.OriginatorAccount,
		LoanTokenID:   tokenID,
		Fraction:      input.Fraction,
		Price:         decimal.NewFromFloat(input.Price),
		Status:        models.TxStatusPending,
	}
	if err := s.Repo.InsertTransaction(ctx, item); err != nil {
		return nil, err
	}

	res, err := s.Chain.TransferOwnership(ctx, tokenID, loan.OriginatorAccount, input.BuyerAccount,
		int64(input.Fraction), toChainUnits(input.Price))
	if err != nil {
		item.Status = models.TxStatusFailed
		if saveErr := s.Repo.SaveTransaction(ctx, item); saveErr != nil && s.Logger != nil {
			s.Logger.Error("marking transaction failed", zap.String("tx_id", item.TransactionID), zap.Error(saveErr))
		}
		return nil, fmt.Errorf("chain settlement failed: %w", err)
	}

	now := time.Now().UTC()
	blockHeight := int64(res.BlockHeight)
	item.NearTxHash = &res.TransactionHash
	item.BlockHeight = &blockHeight
	item.Status = models.TxStatusConfirmed
	item.ConfirmedAt = &now
	if err := s.Repo.SaveTransaction(ctx, item); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("transaction confirmed",
			zap.String("tx_id", item.TransactionID),
			zap.String("loan_id", loan.LoanID),
			zap.Int("fraction_bp", input.Fraction),
			zap.String("near_tx", res.TransactionHash))
	}
	return item, nil
}

func (s *TradeService) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	item, err := s.Repo.GetTransactionByTxID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txID)
	}
	return item, nil
}

// ListLoanTransactions returns the trade history of a loan, newest first.
func (s *TradeService) ListLoanTransactions(ctx context.Context, loanID string, limit, offset int) ([]models.Transaction, error) {
	loan, err := s.Repo.GetLoanByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("%w: %s", ErrLoanNotFound, loanID)
	}
	return s.Repo.ListTransactionsByLoan(ctx, loan.ID, limit, offset)
}
