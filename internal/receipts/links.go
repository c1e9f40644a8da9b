package receipts

import (
	"strconv"

	"git.home.luguber.info/inful/grdesk/internal/foundation/normalization"
)

// Preference key and values choosing where to go after an operation is created.
const (
	PrefCreateNewType = "GR_CREATE_NEW_OP_TYPE"

	CreateNewOperation = "operation"
	CreateNewPosition  = "position"

	DefaultCreateNewType = CreateNewOperation

	RouteNewOperation = "/goods-receipts/new"
)

var createNewTypes = normalization.NewEnum("create-new type", map[string]string{
	CreateNewOperation: CreateNewOperation,
	CreateNewPosition:  CreateNewPosition,
}, DefaultCreateNewType)

// Preferences reads persisted user options.
type Preferences interface {
	Get(key string) (string, bool)
}

// LinkAfterCreation returns the location to open after operation id was created.
func LinkAfterCreation(option string, id int64) string {
	base := "/goods-receipts/" + strconv.FormatInt(id, 10)
	if option == CreateNewPosition {
		return base + "/positions/new"
	}
	return base
}

// CreateNewType returns the saved option or the default.
func CreateNewType(prefs Preferences) string {
	if prefs == nil {
		return DefaultCreateNewType
	}
	v, _ := prefs.Get(PrefCreateNewType)
	return createNewTypes.Normalize(v)
}

// PreferenceWriter persists user options.
type PreferenceWriter interface {
	Preferences
	Set(key, value string) error
}

// SetCreateNewType validates and saves the option.
func SetCreateNewType(prefs PreferenceWriter, option string) (string, error) {
	v, err := createNewTypes.Parse(option)
	if err != nil {
		return "", ErrInvalidForm.WithContext("fields", map[string]string{"createNewType": err.Error()})
	}
	if err := prefs.Set(PrefCreateNewType, v); err != nil {
		return "", err
	}
	return v, nil
}
