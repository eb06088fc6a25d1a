package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-service/internal/domain/document"
	"loan-service/internal/testutil/testdb"
)

func TestDocumentRepository_CreateListVerify(t *testing.T) {
	db := testdb.Open(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	first := &document.Document{
		LoanID:       10,
		DocumentType: document.TypePayStub,
		FileName:     "stub.pdf",
		DocumentURL:  "http://blob/loans/10/a-stub.pdf",
		ObjectKey:    "loans/10/a-stub.pdf",
		FileSize:     1024,
		MimeType:     "application/pdf",
		UploadedAt:   time.Now().Add(-time.Hour).UTC(),
	}
	second := &document.Document{
		LoanID:       10,
		DocumentType: document.TypeIdentification,
		FileName:     "id.png",
		DocumentURL:  "http://blob/loans/10/b-id.png",
		ObjectKey:    "loans/10/b-id.png",
		UploadedAt:   time.Now().UTC(),
	}
	other := &document.Document{
		LoanID:       11,
		DocumentType: document.TypeOther,
		FileName:     "x.txt",
		DocumentURL:  "http://blob/loans/11/x.txt",
		ObjectKey:    "loans/11/x.txt",
	}
	for _, d := range []*document.Document{first, second, other} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := repo.ListByLoan(ctx, 10)
	if err != nil {
		t.Fatalf("ListByLoan: %v", err)
	}
	if len(list) != 2 || list[0].FileName != "id.png" {
		t.Fatalf("unexpected list: %+v", list)
	}

	got, err := repo.GetByID(ctx, 10, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if err := got.Verify(99, "looks fine", time.Now()); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := repo.GetByID(ctx, 10, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !again.Verified || again.VerifiedBy == nil || *again.VerifiedBy != 99 {
		t.Fatalf("verification not persisted: %+v", again)
	}
}

func TestDocumentRepository_GetByID_WrongLoan(t *testing.T) {
	db := testdb.Open(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	d := &document.Document{LoanID: 1, DocumentType: document.TypeOther, FileName: "a", DocumentURL: "u", ObjectKey: "k"}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.GetByID(ctx, 2, d.ID); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
