package receipts

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys of user-facing notices.
const (
	MsgOperationCreated = "operation.created"
	MsgSupNumberExists  = "operation.sup_number_exists"
	MsgSaveFailed       = "operation.save_failed"
	MsgFieldRequired    = "field.required"
	MsgFieldFutureDate  = "field.future_date"
	MsgFieldTooLong     = "field.too_long"
)

var supported = []language.Tag{language.Russian, language.English}

var matcher = language.NewMatcher(supported)

var notices = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Russian))
	var errs []error
	set := func(key, ru, en string) {
		errs = append(errs,
			b.SetString(language.Russian, key, ru),
			b.SetString(language.English, key, en))
	}
	set(MsgOperationCreated, "Операция успешно создана", "Operation created successfully")
	set(MsgSupNumberExists,
		"Существуют другие операции с указанным номером отгрузки поставщика: %s. Желаете продолжить?",
		"Other operations already use supplier shipment number %s. Continue?")
	set(MsgSaveFailed, "Произошла ошибка при сохранении операции", "Failed to save the operation")
	set(MsgFieldRequired, "Обязательное поле", "Required field")
	set(MsgFieldFutureDate, "Дата не может быть в будущем", "Date cannot be in the future")
	set(MsgFieldTooLong, "Не более %d символов", "At most %d characters")
	if err := errors.Join(errs...); err != nil {
		panic(fmt.Sprintf("receipts: building notice catalog: %v", err))
	}
	return b
}()

// Notices renders notices in one language.
type Notices struct {
	tag language.Tag
	p   *message.Printer
}

// NewNotices picks the closest supported language; Russian is the default.
func NewNotices(lang string) *Notices {
	tag := language.Russian
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			_, idx, _ := matcher.Match(parsed)
			tag = supported[idx]
		}
	}
	return &Notices{tag: tag, p: message.NewPrinter(tag, message.Catalog(notices))}
}

// Language returns the selected language tag.
func (n *Notices) Language() string { return n.tag.String() }

// Text formats a notice.
func (n *Notices) Text(key string, args ...any) string {
	return n.p.Sprintf(key, args...)
}
