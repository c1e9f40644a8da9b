package grapi

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"git.home.luguber.info/inful/grdesk/internal/receipts"
)

// Memory is an in-process backend used when no backend URL is configured.
type Memory struct {
	mu     sync.Mutex
	ops    []receipts.Operation
	rules  []receipts.StatusRule
	nextID int64
	now    func() time.Time
}

var _ receipts.Backend = (*Memory)(nil)

// NewMemory returns an empty backend with the default status rules.
func NewMemory() *Memory {
	return &Memory{
		rules: []receipts.StatusRule{
			{ID: receipts.StatusNew, Name: "new"},
			{ID: 2, Name: "accepting"},
			{ID: 3, Name: "accepted", Final: true},
		},
		now: time.Now,
	}
}

// CreateOperation stores the operation with a generated id and number.
func (m *Memory) CreateOperation(ctx context.Context, body receipts.CreateBody) (receipts.Operation, error) {
	if err := ctx.Err(); err != nil {
		return receipts.Operation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	op := receipts.Operation{
		ID:              m.nextID,
		Number:          body.Number,
		Status:          receipts.StatusNew,
		Supplier:        &receipts.Contractor{ID: body.SupplierID},
		CreateDate:      body.CreateDate,
		SupNumber:       body.SupNumber,
		SupShipmentDate: body.SupShipmentDate,
		RepaymentPeriod: body.RepaymentPeriod,
	}
	if body.AgreementID != 0 {
		op.MixedAgreement = &receipts.MixedAgreement{ContractorID: body.SupplierID, AgreementID: body.AgreementID}
	}
	if !body.ManualNumber || op.Number == "" {
		op.Number = "GR-" + strconv.FormatInt(op.ID, 10)
	}
	if op.CreateDate.IsZero() {
		op.CreateDate = m.now().UTC()
	}
	m.ops = append(m.ops, op)
	return op, nil
}

// ListOperations returns newest operations first.
func (m *Memory) ListOperations(ctx context.Context, filter receipts.ListFilter) (receipts.OperationsList, error) {
	if err := ctx.Err(); err != nil {
		return receipts.OperationsList{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := receipts.OperationsList{List: []receipts.Operation{}}
	for _, op := range slices.Backward(m.ops) {
		if filter.SupNumber != "" && (op.SupNumber == nil || *op.SupNumber != filter.SupNumber) {
			continue
		}
		out.Total++
		if filter.Limit <= 0 || len(out.List) < filter.Limit {
			out.List = append(out.List, op)
		}
	}
	return out, nil
}

// StatusRules returns the configured rules.
func (m *Memory) StatusRules(ctx context.Context) ([]receipts.StatusRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rules), nil
}
