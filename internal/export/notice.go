package export

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoticeLevel classifies a user-facing notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeError
)

// Notice is a short message for the person who started the export. It never
// carries raw error text.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Notifier receives notices. Notify must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

var printer = message.NewPrinter(language.English)

// Failure text shown for every export error.
const failureText = "Export failed. Please try again."

func leadsWord(n int) string {
	if n == 1 {
		return "lead"
	}
	return "leads"
}

func successNotice(n int, f Format) Notice {
	return Notice{Level: NoticeSuccess, Text: printer.Sprintf("Exported %d %s to %s", n, leadsWord(n), f.Label())}
}

func nothingNotice() Notice {
	return Notice{Level: NoticeInfo, Text: "Nothing to export"}
}

func failureNotice() Notice {
	return Notice{Level: NoticeError, Text: failureText}
}

func tooManyNotice(count, limit int) Notice {
	return Notice{Level: NoticeError, Text: printer.Sprintf(
		"%d leads match this view; exports are limited to %d. Narrow the filters and try again.", count, limit)}
}

// ConfirmPrompt is the question shown while an export awaits confirmation.
func ConfirmPrompt(j Job) string {
	what := "selected"
	if j.Scope == ScopeFiltered {
		what = "matching"
	}
	return printer.Sprintf("Export %d %s %s to %s?", j.Count, what, leadsWord(j.Count), j.Format.Label())
}

// Progress renders "loaded/total" with grouping separators.
func Progress(j Job) string {
	return printer.Sprintf("%d/%d", j.Loaded, j.Total)
}
