package document

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	domain "loan-service/internal/domain/document"
	"loan-service/internal/domain/loan"
	"loan-service/internal/domain/uow"
	"loan-service/pkg/id"
	"loan-service/pkg/logger"
)

type UploadInput struct {
	LoanID         uint64
	DocumentType   string `validate:"required,oneof=IDENTIFICATION PAY_STUB W2_FORM TAX_RETURN BANK_STATEMENT EMPLOYMENT_VERIFICATION CREDIT_REPORT APPRAISAL VEHICLE_TITLE INSURANCE LOAN_AGREEMENT PROMISSORY_NOTE OTHER"`
	FileName       string `validate:"required,max=255"`
	Size           int64
	MimeType       string `validate:"max=100"`
	UploadedBy     *uint64
	ExpirationDate *time.Time
	Body           io.Reader
}

type VerifyInput struct {
	VerifierID uint64 `json:"verifierId" validate:"required,gt=0"`
	Notes      string `json:"notes" validate:"max=500"`
}

// DocumentDTO is a stored document plus whether it had expired when read.
type DocumentDTO struct {
	domain.Document
	Expired bool `json:"expired"`
}

type Usecase struct {
	docs  domain.Repository
	loans loan.Repository
	blobs domain.BlobStore
	uow   uow.UnitOfWork
	now   func() time.Time
}

func NewUsecase(docs domain.Repository, loans loan.Repository, blobs domain.BlobStore, tx uow.UnitOfWork) *Usecase {
	return &Usecase{docs: docs, loans: loans, blobs: blobs, uow: tx, now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// objectKey places every file under its loan with a random prefix so
// re-uploads of the same name never overwrite each other.
func objectKey(loanID uint64, fileName string) string {
	name := strings.ReplaceAll(path.Base(fileName), " ", "_")
	return fmt.Sprintf("loans/%d/%s-%s", loanID, id.NewUUID(), name)
}

// Upload stores the bytes first and the row second; the object is removed
// again if the row cannot be written.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (*DocumentDTO, error) {
	if u.blobs == nil {
		return nil, ErrStorageDisabled
	}
	if _, err := u.loans.GetByID(ctx, in.LoanID); err != nil {
		return nil, err
	}

	key := objectKey(in.LoanID, in.FileName)
	url, err := u.blobs.Put(ctx, key, in.Body, in.Size, in.MimeType)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	d := &domain.Document{
		LoanID:         in.LoanID,
		DocumentType:   domain.Type(in.DocumentType),
		FileName:       in.FileName,
		DocumentURL:    url,
		ObjectKey:      key,
		FileSize:       in.Size,
		MimeType:       in.MimeType,
		UploadedBy:     in.UploadedBy,
		UploadedAt:     u.now().UTC(),
		ExpirationDate: in.ExpirationDate,
	}
	if err := u.docs.Create(ctx, d); err != nil {
		if derr := u.blobs.Delete(ctx, key); derr != nil {
			logger.WithContext(ctx).Error("orphaned document object", "key", key, "err", derr)
		}
		return nil, err
	}

	logger.WithContext(ctx).Info("document uploaded",
		"loan_id", d.LoanID,
		"document_id", d.ID,
		"type", d.DocumentType,
		"size", d.FileSize)
	return u.view(d), nil
}

func (u *Usecase) List(ctx context.Context, loanID uint64) ([]DocumentDTO, error) {
	if _, err := u.loans.GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	docs, err := u.docs.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentDTO, 0, len(docs))
	for i := range docs {
		out = append(out, *u.view(&docs[i]))
	}
	return out, nil
}

func (u *Usecase) Verify(ctx context.Context, loanID, documentID uint64, in VerifyInput) (*DocumentDTO, error) {
	now := u.now()
	var out *domain.Document
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		d, err := r.Documents.GetByID(ctx, loanID, documentID)
		if err != nil {
			return err
		}
		if err := d.Verify(in.VerifierID, in.Notes, now); err != nil {
			return err
		}
		if err := r.Documents.Save(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("document verified", "loan_id", loanID, "document_id", documentID, "verifier_id", in.VerifierID)
	return u.view(out), nil
}

func (u *Usecase) view(d *domain.Document) *DocumentDTO {
	return &DocumentDTO{Document: *d, Expired: d.Expired(u.now())}
}
