package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"loan-service/internal/adapter/repository/mysql"
	domain "loan-service/internal/domain/document"
	"loan-service/internal/domain/loan"
	"loan-service/internal/domain/uow"
	"loan-service/internal/testutil/documentmock"
	"loan-service/internal/testutil/loanmock"
	"loan-service/internal/testutil/testdb"
	"loan-service/internal/testutil/uowmock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func loanExists(ids ...uint64) *loanmock.Repo {
	return &loanmock.Repo{
		GetByIDFn: func(_ context.Context, id uint64) (*loan.Loan, error) {
			for _, want := range ids {
				if id == want {
					return &loan.Loan{ID: id}, nil
				}
			}
			return nil, loan.ErrNotFound
		},
	}
}

func upload(loanID uint64, name string) UploadInput {
	return UploadInput{
		LoanID:       loanID,
		DocumentType: string(domain.TypePayStub),
		FileName:     name,
		Size:         5,
		MimeType:     "application/pdf",
		Body:         strings.NewReader("%PDF-"),
	}
}

func TestUpload_StoresObjectAndRow(t *testing.T) {
	blobs := &documentmock.Blobs{BaseURL: "http://minio:9000/loan-documents"}
	var created *domain.Document
	docs := &documentmock.Repo{
		CreateFn: func(_ context.Context, d *domain.Document) error {
			d.ID = 11
			created = d
			return nil
		},
	}
	uc := NewUsecase(docs, loanExists(7), blobs, uowmock.New()).WithClock(func() time.Time { return fixedNow })

	d, err := uc.Upload(context.Background(), upload(7, "march pay.pdf"))
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, uint64(11), d.ID)
	assert.True(t, strings.HasPrefix(d.ObjectKey, "loans/7/"), d.ObjectKey)
	assert.True(t, strings.HasSuffix(d.ObjectKey, "-march_pay.pdf"), d.ObjectKey)
	assert.Equal(t, blobs.BaseURL+"/"+d.ObjectKey, d.DocumentURL)
	assert.Equal(t, []byte("%PDF-"), blobs.Objects[d.ObjectKey])
	assert.Equal(t, fixedNow, d.UploadedAt)
}

func TestUpload_Errors(t *testing.T) {
	t.Run("unknown loan", func(t *testing.T) {
		blobs := &documentmock.Blobs{}
		uc := NewUsecase(&documentmock.Repo{}, loanExists(7), blobs, uowmock.New())
		_, err := uc.Upload(context.Background(), upload(8, "a.pdf"))
		require.ErrorIs(t, err, loan.ErrNotFound)
		require.Empty(t, blobs.Objects)
	})

	t.Run("blob store fails", func(t *testing.T) {
		blobs := &documentmock.Blobs{PutErr: errors.New("minio down")}
		docs := &documentmock.Repo{CreateFn: func(context.Context, *domain.Document) error {
			t.Fatal("row must not be written")
			return nil
		}}
		uc := NewUsecase(docs, loanExists(7), blobs, uowmock.New())
		_, err := uc.Upload(context.Background(), upload(7, "a.pdf"))
		require.ErrorIs(t, err, blobs.PutErr)
	})

	t.Run("row insert fails removes object", func(t *testing.T) {
		boom := errors.New("insert failed")
		blobs := &documentmock.Blobs{}
		docs := &documentmock.Repo{CreateFn: func(context.Context, *domain.Document) error { return boom }}
		uc := NewUsecase(docs, loanExists(7), blobs, uowmock.New())
		_, err := uc.Upload(context.Background(), upload(7, "a.pdf"))
		require.ErrorIs(t, err, boom)
		require.Len(t, blobs.Deleted, 1)
		require.Empty(t, blobs.Objects)
	})

	t.Run("storage not configured", func(t *testing.T) {
		uc := NewUsecase(&documentmock.Repo{}, loanExists(7), nil, uowmock.New())
		_, err := uc.Upload(context.Background(), upload(7, "a.pdf"))
		require.ErrorIs(t, err, ErrStorageDisabled)
	})
}

func TestVerify(t *testing.T) {
	stored := &domain.Document{ID: 11, LoanID: 7}
	docs := &documentmock.Repo{
		GetByIDFn: func(_ context.Context, loanID, documentID uint64) (*domain.Document, error) {
			if loanID != 7 || documentID != 11 {
				return nil, domain.ErrNotFound
			}
			return stored, nil
		},
	}
	uc := NewUsecase(docs, loanExists(7), nil, uowmock.Passthrough(uow.Repos{Documents: docs})).
		WithClock(func() time.Time { return fixedNow })

	d, err := uc.Verify(context.Background(), 7, 11, VerifyInput{VerifierID: 3, Notes: "matches payroll"})
	require.NoError(t, err)
	require.True(t, d.Verified)
	require.Equal(t, uint64(3), *d.VerifiedBy)
	require.Equal(t, fixedNow, *d.VerifiedDate)

	_, err = uc.Verify(context.Background(), 7, 11, VerifyInput{VerifierID: 3})
	require.ErrorIs(t, err, domain.ErrAlreadyVerified)

	_, err = uc.Verify(context.Background(), 8, 11, VerifyInput{VerifierID: 3})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUploadListVerify_Persisted(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	loans := mysql.NewLoanRepository(db)

	l := &loan.Loan{
		CustomerID:         1,
		LoanNumber:         "LOAN-2026-000001",
		LoanType:           loan.TypeAuto,
		LoanAmount:         decimal.NewFromInt(25000),
		InterestRate:       decimal.RequireFromString("8.99"),
		TermMonths:         60,
		MonthlyPayment:     decimal.RequireFromString("518.84"),
		OutstandingBalance: decimal.NewFromInt(25000),
		Status:             loan.StatusApproved,
		ApplicationDate:    loan.Date(fixedNow),
		LoanPurpose:        "car",
	}
	require.NoError(t, loans.Create(ctx, l))

	blobs := &documentmock.Blobs{BaseURL: "http://blobs"}
	uc := NewUsecase(mysql.NewDocumentRepository(db), loans, blobs, mysql.NewGormUoW(db))

	d, err := uc.Upload(ctx, upload(l.ID, "id.png"))
	require.NoError(t, err)

	list, err := uc.List(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.False(t, list[0].Verified)

	_, err = uc.Verify(ctx, l.ID, d.ID, VerifyInput{VerifierID: 2})
	require.NoError(t, err)

	list, err = uc.List(ctx, l.ID)
	require.NoError(t, err)
	require.True(t, list[0].Verified)

	_, err = uc.List(ctx, l.ID+100)
	require.ErrorIs(t, err, loan.ErrNotFound)
}

func TestList_FlagsExpired(t *testing.T) {
	past := fixedNow.AddDate(0, -1, 0)
	future := fixedNow.AddDate(1, 0, 0)
	docs := &documentmock.Repo{
		ListByLoanFn: func(context.Context, uint64) ([]domain.Document, error) {
			return []domain.Document{
				{ID: 1, LoanID: 7, ExpirationDate: &past},
				{ID: 2, LoanID: 7, ExpirationDate: &future},
				{ID: 3, LoanID: 7},
			}, nil
		},
	}
	uc := NewUsecase(docs, loanExists(7), nil, uowmock.New()).WithClock(func() time.Time { return fixedNow })

	list, err := uc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].Expired)
	assert.False(t, list[1].Expired)
	assert.False(t, list[2].Expired)
}
