package handlers

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	msgKeyNotFound = "key does not exist"
	msgKeyExpired  = "key expired"
	msgHoursLeft   = "%s hours"

	// Not localized.
	msgInvalidRequest = "Invalid request"
)

var vietnamese = map[string]string{
	msgKeyNotFound: "Key không tồn tại",
	msgKeyExpired:  "Key đã hết hạn",
	msgHoursLeft:   "%s giờ",
}

var supportedLocales = []language.Tag{language.English, language.Vietnamese}

// Messages renders user-facing verify/extend messages in one locale.
type Messages struct {
	printer *message.Printer
}

// NewMessages picks the closest supported locale to the given BCP 47 tag,
// falling back to English.
func NewMessages(locale string) *Messages {
	b := catalog.NewBuilder()
	for key, msg := range vietnamese {
		if err := b.SetString(language.Vietnamese, key, msg); err != nil {
			panic(err)
		}
	}

	_, i, _ := language.NewMatcher(supportedLocales).Match(language.Make(locale))
	return &Messages{printer: message.NewPrinter(supportedLocales[i], message.Catalog(b))}
}

func (m *Messages) KeyNotFound() string { return m.printer.Sprintf(msgKeyNotFound) }

func (m *Messages) KeyExpired() string { return m.printer.Sprintf(msgKeyExpired) }

// HoursLeft formats the count without digit grouping.
func (m *Messages) HoursLeft(hours int64) string {
	return m.printer.Sprintf(msgHoursLeft, strconv.FormatInt(hours, 10))
}
