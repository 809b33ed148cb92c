package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"loanmarket/internal/client/near"
	"loanmarket/internal/models"
)

// testChainClient points at an unroutable RPC so block heights come from the
// client's local fallback counter.
func testChainClient() *near.Client {
	return near.NewClient(near.Config{
		Network:    "testnet",
		ContractID: "loanmarket.testnet",
		AccountID:  "loanmarket.testnet",
		RPCURL:     "http://127.0.0.1:1",
	}, nil)
}

func newTestTradeService(t *testing.T) (*TradeService, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	return &TradeService{Repo: repo, Chain: testChainClient()}, repo
}

func activeLoan(t *testing.T, repo *stubRepo, loanID string) *models.Loan {
	t.Helper()
	loan := &models.Loan{
		LoanID:            loanID,
		OriginatorAccount: "originator.testnet",
		Status:            models.LoanStatusActive,
	}
	if err := repo.InsertLoan(context.Background(), loan); err != nil {
		t.Fatalf("insert loan: %v", err)
	}
	return loan
}

func TestInitiateTransaction_ConfirmsSettlement(t *testing.T) {
	svc, repo := newTestTradeService(t)
	loan := activeLoan(t, repo, "LN-100")

	item, err := svc.InitiateTransaction(context.Background(), InitiateTransactionInput{
		LoanID:       "LN-100",
		BuyerAccount: "investor.testnet",
		Fraction:     2500,
		Price:        12000,
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if item.Status != models.TxStatusConfirmed {
		t.Fatalf("status: got %s want CONFIRMED", item.Status)
	}
	if !strings.HasPrefix(item.TransactionID, "TXN-") {
		t.Fatalf("transaction id: %s", item.TransactionID)
	}
	if item.SellerAccount != loan.OriginatorAccount {
		t.Fatalf("seller: got %s", item.SellerAccount)
	}
	if item.NearTxHash == nil || item.BlockHeight == nil || item.ConfirmedAt == nil {
		t.Fatalf("settlement fields missing: %+v", item)
	}

	stored, _ := repo.GetTransactionByTxID(context.Background(), item.TransactionID)
	if stored == nil || stored.Status != models.TxStatusConfirmed {
		t.Fatalf("stored transaction: %+v", stored)
	}
}

func TestInitiateTransaction_RejectsBadFraction(t *testing.T) {
	svc, repo := newTestTradeService(t)
	activeLoan(t, repo, "LN-101")

	for _, fraction := range []int{0, -10, 10001} {
		_, err := svc.InitiateTransaction(context.Background(), InitiateTransactionInput{
			LoanID:       "LN-101",
			BuyerAccount: "investor.testnet",
			Fraction:     fraction,
			Price:        100,
		})
		if !errors.Is(err, ErrInvalidFraction) {
			t.Fatalf("fraction %d: expected ErrInvalidFraction, got %v", fraction, err)
		}
	}
}

func TestInitiateTransaction_RequiresActiveLoan(t *testing.T) {
	svc, repo := newTestTradeService(t)
	loan := &models.Loan{
		LoanID:            "LN-102",
		OriginatorAccount: "originator.testnet",
		Status:            models.LoanStatusPending,
	}
	if err := repo.InsertLoan(context.Background(), loan); err != nil {
		t.Fatalf("insert loan: %v", err)
	}

	_, err := svc.InitiateTransaction(context.Background(), InitiateTransactionInput{
		LoanID:       "LN-102",
		BuyerAccount: "investor.testnet",
		Fraction:     100,
		Price:        50,
	})
	if !errors.Is(err, ErrLoanNotTradeable) {
		t.Fatalf("expected ErrLoanNotTradeable, got %v", err)
	}
}

func TestInitiateTransaction_UnknownLoan(t *testing.T) {
	svc, _ := newTestTradeService(t)
	_, err := svc.InitiateTransaction(context.Background(), InitiateTransactionInput{
		LoanID:       "LN-NONE",
		BuyerAccount: "investor.testnet",
		Fraction:     100,
		Price:        50,
	})
	if !errors.Is(err, ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound, got %v", err)
	}
}
