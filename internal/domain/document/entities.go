package document

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrAlreadyVerified = errors.New("document already verified")
)

type Type string

const (
	TypeIdentification         Type = "IDENTIFICATION"
	TypePayStub                Type = "PAY_STUB"
	TypeW2Form                 Type = "W2_FORM"
	TypeTaxReturn              Type = "TAX_RETURN"
	TypeBankStatement          Type = "BANK_STATEMENT"
	TypeEmploymentVerification Type = "EMPLOYMENT_VERIFICATION"
	TypeCreditReport           Type = "CREDIT_REPORT"
	TypeAppraisal              Type = "APPRAISAL"
	TypeVehicleTitle           Type = "VEHICLE_TITLE"
	TypeInsurance              Type = "INSURANCE"
	TypeLoanAgreement          Type = "LOAN_AGREEMENT"
	TypePromissoryNote         Type = "PROMISSORY_NOTE"
	TypeOther                  Type = "OTHER"
)

// Table: loan_documents. File bytes live in the blob store; only the URL is
// kept here.
type Document struct {
	ID                uint64         `gorm:"column:document_id;primaryKey;autoIncrement" json:"documentId"`
	LoanID            uint64         `gorm:"column:loan_id;not null;index:idx_doc_loan_id" json:"loanId"`
	DocumentType      Type           `gorm:"column:document_type;size:50;not null;index:idx_doc_type" json:"documentType"`
	FileName          string         `gorm:"column:file_name;size:255;not null" json:"fileName"`
	DocumentURL       string         `gorm:"column:document_url;size:500;not null" json:"documentUrl"`
	ObjectKey         string         `gorm:"column:object_key;size:500;not null" json:"-"`
	FileSize          int64          `gorm:"column:file_size" json:"fileSize"`
	MimeType          string         `gorm:"column:mime_type;size:100" json:"mimeType"`
	Verified          bool           `gorm:"column:verified;default:false;index:idx_doc_verified" json:"verified"`
	VerifiedBy        *uint64        `gorm:"column:verified_by" json:"verifiedBy"`
	VerifiedDate      *time.Time     `gorm:"column:verified_date" json:"verifiedDate"`
	VerificationNotes string         `gorm:"column:verification_notes;size:500" json:"verificationNotes"`
	UploadedBy        *uint64        `gorm:"column:uploaded_by" json:"uploadedBy"`
	UploadedAt        time.Time      `gorm:"column:uploaded_at;autoCreateTime" json:"uploadedAt"`
	ExpirationDate    *time.Time     `gorm:"column:expiration_date" json:"expirationDate"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Document) TableName() string { return "loan_documents" }

func (d *Document) Verify(verifierID uint64, notes string, now time.Time) error {
	if d.Verified {
		return ErrAlreadyVerified
	}
	at := now.UTC()
	d.Verified = true
	d.VerifiedBy = &verifierID
	d.VerifiedDate = &at
	d.VerificationNotes = notes
	return nil
}

func (d *Document) Expired(now time.Time) bool {
	return d.ExpirationDate != nil && now.After(*d.ExpirationDate)
}
