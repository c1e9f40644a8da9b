package receipts

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/foundation/normalization"
	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/modules/common"
	"git.home.luguber.info/inful/grdesk/internal/modules/stuff"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Form field names.
const (
	FieldNumber          = "number"
	FieldManualNumber    = "manualNumber"
	FieldMixedAgreement  = "mixedAgreement"
	FieldCreateDate      = "createDate"
	FieldWorker          = "worker"
	FieldCreator         = "creator"
	FieldSupNumber       = "supNumber"
	FieldSupShipmentDate = "supShipmentDate"
)

// MaxSupNumberLength bounds the supplier shipment number.
const MaxSupNumberLength = 64

// ErrInvalidForm is returned when form values fail validation. The "fields"
// context entry maps field names to localized messages.
var ErrInvalidForm = ferrors.ValidationError("invalid operation form").Build()

// FormValues are the editable values of an operation form.
type FormValues struct {
	ID              int64           `json:"id,omitempty"`
	Number          string          `json:"number"`
	ManualNumber    bool            `json:"manualNumber"`
	MixedAgreement  *MixedAgreement `json:"mixedAgreement"`
	CreateDate      *time.Time      `json:"createDate"`
	Worker          *stuff.Employee `json:"worker"`
	Creator         *stuff.Employee `json:"creator"`
	SupNumber       string          `json:"supNumber"`
	SupShipmentDate *time.Time      `json:"supShipmentDate"`
	RepaymentPeriod *int            `json:"repaymentPeriod"`
}

// Draft returns initial values for a new operation: the signed-in employee
// as worker and creator, created now.
func Draft(state store.State, now time.Time) FormValues {
	created := now
	v := FormValues{CreateDate: &created}
	if emp, ok := stuff.SelectEmployeeByID(state, common.SelectCurrentEmployeeID(state)); ok {
		worker, creator := emp, emp
		v.Worker, v.Creator = &worker, &creator
	}
	return v
}

// FieldErrors maps field names to message keys.
type FieldErrors map[string]string

// Localize renders every message with n.
func (e FieldErrors) Localize(n *Notices) map[string]string {
	out := make(map[string]string, len(e))
	for field, key := range e {
		if key == MsgFieldTooLong {
			out[field] = n.Text(key, MaxSupNumberLength)
			continue
		}
		out[field] = n.Text(key)
	}
	return out
}

// Validate checks v against the form rules. Dates must not be after now.
func Validate(v FormValues, now time.Time) FieldErrors {
	errs := FieldErrors{}
	if v.ManualNumber && strings.TrimSpace(v.Number) == "" {
		errs[FieldNumber] = MsgFieldRequired
	}
	if v.MixedAgreement == nil || v.MixedAgreement.ContractorID == 0 {
		errs[FieldMixedAgreement] = MsgFieldRequired
	}
	switch {
	case v.CreateDate == nil || v.CreateDate.IsZero():
		errs[FieldCreateDate] = MsgFieldRequired
	case v.CreateDate.After(now):
		errs[FieldCreateDate] = MsgFieldFutureDate
	}
	if v.Worker == nil || v.Worker.ID == 0 {
		errs[FieldWorker] = MsgFieldRequired
	}
	if v.Creator == nil || v.Creator.ID == 0 {
		errs[FieldCreator] = MsgFieldRequired
	}
	if utf8.RuneCountInString(normalization.Text(v.SupNumber)) > MaxSupNumberLength {
		errs[FieldSupNumber] = MsgFieldTooLong
	}
	if v.SupShipmentDate != nil && v.SupShipmentDate.After(now) {
		errs[FieldSupShipmentDate] = MsgFieldFutureDate
	}
	return errs
}

// Normalize turns validated values into a create body.
func Normalize(v FormValues) CreateBody {
	body := CreateBody{
		ManualNumber:    v.ManualNumber,
		SupNumber:       normalization.OptionalText(v.SupNumber),
		RepaymentPeriod: v.RepaymentPeriod,
	}
	if v.ManualNumber {
		body.Number = normalization.Text(v.Number)
	}
	if v.MixedAgreement != nil {
		body.SupplierID = v.MixedAgreement.ContractorID
		body.AgreementID = v.MixedAgreement.AgreementID
	}
	if v.CreateDate != nil {
		body.CreateDate = v.CreateDate.UTC()
	}
	if v.SupShipmentDate != nil {
		d := v.SupShipmentDate.UTC()
		body.SupShipmentDate = &d
	}
	if v.Worker != nil {
		body.WorkerID = v.Worker.ID
	}
	if v.Creator != nil {
		body.CreatorID = v.Creator.ID
	}
	return body
}

// FormConfig wires a Form.
type FormConfig struct {
	Backend    Backend
	Actions    *Actions
	Dispatcher store.Dispatcher
	Prefs      Preferences
	Notices    *Notices
	Logger     *slog.Logger
	Now        func() time.Time
}

// Form runs the new-operation workflow.
type Form struct {
	cfg FormConfig
}

// NewForm returns a Form; nil Actions are built from the backend.
func NewForm(cfg FormConfig) *Form {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Notices == nil {
		cfg.Notices = NewNotices("")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Actions == nil {
		cfg.Actions = NewActions(cfg.Backend, cfg.Logger)
	}
	return &Form{cfg: cfg}
}

// SubmitResult is the outcome of a submission. When NeedsConfirmation is
// set nothing was created and the caller should resubmit with confirm.
type SubmitResult struct {
	NeedsConfirmation bool       `json:"needsConfirmation"`
	ExistingSupNumber string     `json:"existingSupNumber,omitempty"`
	Notice            string     `json:"notice"`
	Operation         *Operation `json:"operation,omitempty"`
	Redirect          string     `json:"redirect,omitempty"`
}

// ExistingSupNumber looks for another operation with the same supplier
// shipment number. Backend failures are logged and reported as no match.
func (f *Form) ExistingSupNumber(ctx context.Context, supNumber string) string {
	supNumber = normalization.Text(supNumber)
	if supNumber == "" {
		return ""
	}
	res, err := f.cfg.Backend.ListOperations(ctx, ListFilter{SupNumber: supNumber})
	if err != nil {
		logUnlessCanceled(ctx, f.cfg.Logger, "Supplier shipment number check failed", err)
		return ""
	}
	if res.Total == 0 {
		return ""
	}
	for _, op := range res.List {
		if op.SupNumber != nil && *op.SupNumber == supNumber {
			return *op.SupNumber
		}
	}
	return ""
}

// Submit validates values and creates the operation. A supplier shipment
// number that changed from initial and is used elsewhere needs confirm.
func (f *Form) Submit(ctx context.Context, initial, values FormValues, confirm bool) (SubmitResult, error) {
	if errs := Validate(values, f.cfg.Now()); len(errs) > 0 {
		return SubmitResult{}, ErrInvalidForm.WithContext("fields", errs.Localize(f.cfg.Notices))
	}

	sup := normalization.Text(values.SupNumber)
	if sup != "" && sup != normalization.Text(initial.SupNumber) && !confirm {
		if existing := f.ExistingSupNumber(ctx, sup); existing != "" {
			f.cfg.Logger.InfoContext(ctx, "Supplier shipment number already used", logfields.SupNumber(existing))
			return SubmitResult{
				NeedsConfirmation: true,
				ExistingSupNumber: existing,
				Notice:            f.cfg.Notices.Text(MsgSupNumberExists, existing),
			}, nil
		}
	}

	op, err := f.cfg.Actions.CreateOperation.Run(ctx, f.cfg.Dispatcher, Normalize(values))
	if err != nil {
		return SubmitResult{Notice: f.cfg.Notices.Text(MsgSaveFailed)}, err
	}

	f.cfg.Logger.InfoContext(ctx, "Operation created", logfields.OperationID(op.ID))
	return SubmitResult{
		Notice:    f.cfg.Notices.Text(MsgOperationCreated),
		Operation: &op,
		Redirect:  LinkAfterCreation(CreateNewType(f.cfg.Prefs), op.ID),
	}, nil
}
