package uowmock

import (
	"context"
	"errors"
	"testing"

	"loan-service/internal/domain/loan"
	"loan-service/internal/domain/uow"
	"loan-service/internal/testutil/documentmock"
	"loan-service/internal/testutil/loanmock"
)

func TestNew_Unimplemented(t *testing.T) {
	m := New()
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return nil }); !errors.Is(err, ErrUnimplemented) {
		t.Fatalf("WithinTx err = %v", err)
	}
	err := m.WithinLoanTx(context.Background(), 1, func(uow.Repos, *loan.Loan) error { return nil })
	if !errors.Is(err, ErrUnimplemented) {
		t.Fatalf("WithinLoanTx err = %v", err)
	}
}

func TestPassthrough_WithinTx(t *testing.T) {
	repos := uow.Repos{Loans: &loanmock.Repo{}, Documents: &documentmock.Repo{}}
	m := Passthrough(repos)

	var got uow.Repos
	if err := m.WithinTx(context.Background(), func(r uow.Repos) error { got = r; return nil }); err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if got.Loans != repos.Loans || got.Documents != repos.Documents {
		t.Fatal("repos not forwarded")
	}

	boom := errors.New("boom")
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("callback error lost: %v", err)
	}
}

func TestPassthrough_WithinLoanTx(t *testing.T) {
	var locked []uint64
	loans := &loanmock.Repo{
		GetByIDForUpdateFn: func(_ context.Context, id uint64) (*loan.Loan, error) {
			locked = append(locked, id)
			if id != 7 {
				return nil, loan.ErrNotFound
			}
			return &loan.Loan{ID: 7, Status: loan.StatusActive}, nil
		},
	}
	m := Passthrough(uow.Repos{Loans: loans})

	var seen *loan.Loan
	err := m.WithinLoanTx(context.Background(), 7, func(_ uow.Repos, l *loan.Loan) error {
		seen = l
		return nil
	})
	if err != nil || seen == nil || seen.ID != 7 {
		t.Fatalf("WithinLoanTx: loan=%+v err=%v", seen, err)
	}

	called := false
	err = m.WithinLoanTx(context.Background(), 8, func(uow.Repos, *loan.Loan) error { called = true; return nil })
	if !errors.Is(err, loan.ErrNotFound) || called {
		t.Fatalf("missing loan: err=%v called=%v", err, called)
	}
	if len(locked) != 2 || locked[1] != 8 {
		t.Fatalf("locked ids = %v", locked)
	}
}
