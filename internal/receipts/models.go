package receipts

import (
	"time"

	"git.home.luguber.info/inful/grdesk/internal/modules/stuff"
)

// Status identifiers of a goods-receipt operation.
const (
	StatusNew int64 = 1
)

// Contractor is a supplier.
type Contractor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MixedAgreement pairs a supplier with one of its agreements.
type MixedAgreement struct {
	ContractorID  int64  `json:"contractorId"`
	AgreementID   int64  `json:"agreementId,omitempty"`
	Name          string `json:"name"`
	AgreementName string `json:"agreementName,omitempty"`
}

// Operation is a goods-receipt operation as returned by the backend.
type Operation struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	Status          int64           `json:"status"`
	Supplier        *Contractor     `json:"supplier,omitempty"`
	MixedAgreement  *MixedAgreement `json:"mixedAgreement,omitempty"`
	Worker          *stuff.Employee `json:"worker,omitempty"`
	Creator         *stuff.Employee `json:"creator,omitempty"`
	CreateDate      time.Time       `json:"createDate"`
	SupNumber       *string         `json:"supNumber"`
	SupShipmentDate *time.Time      `json:"supShipmentDate"`
	RepaymentPeriod *int            `json:"repaymentPeriod"`
}

// CreateBody is the normalized request that creates an operation.
type CreateBody struct {
	Number          string     `json:"number,omitempty"`
	ManualNumber    bool       `json:"manualNumber"`
	SupplierID      int64      `json:"supplierId"`
	AgreementID     int64      `json:"agreementId,omitempty"`
	CreateDate      time.Time  `json:"createDate"`
	WorkerID        int64      `json:"workerId"`
	CreatorID       int64      `json:"creatorId"`
	SupNumber       *string    `json:"supNumber"`
	SupShipmentDate *time.Time `json:"supShipmentDate"`
	RepaymentPeriod *int       `json:"repaymentPeriod"`
}

// StatusRule describes an operation status. At most one rule is final.
type StatusRule struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Final bool   `json:"final"`
}

// ListFilter narrows ListOperations.
type ListFilter struct {
	SupNumber string
	Limit     int
}

// OperationsList is one page of operations.
type OperationsList struct {
	List  []Operation `json:"list"`
	Total int         `json:"total"`
}
