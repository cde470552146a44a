package stats

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

type monthFormat struct {
	names [12]string
	// layout receives the month name and the two-digit year.
	layout func(name string, yy int) string
}

func nameFirst(name string, yy int) string {
	return fmt.Sprintf("%s %02d", name, yy)
}

func yearFirst(name string, yy int) string {
	return fmt.Sprintf("%02d年%s", yy, name)
}

// Index order matches supportedLocales.
var monthFormats = []monthFormat{
	{
		names:  [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		layout: nameFirst,
	},
	{
		names:  [12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
		layout: nameFirst,
	},
	{
		names:  [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
		layout: nameFirst,
	},
	{
		names:  [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
		layout: nameFirst,
	},
	{
		names:  [12]string{"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"},
		layout: nameFirst,
	},
	{
		names:  [12]string{"jan.", "fev.", "mar.", "abr.", "mai.", "jun.", "jul.", "ago.", "set.", "out.", "nov.", "dez."},
		layout: nameFirst,
	},
	{
		names:  [12]string{"jan", "feb", "mrt", "apr", "mei", "jun", "jul", "aug", "sep", "okt", "nov", "dec"},
		layout: nameFirst,
	},
	{
		names:  [12]string{"1月", "2月", "3月", "4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月"},
		layout: yearFirst,
	},
	{
		names:  [12]string{"1月", "2月", "3月", "4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月"},
		layout: yearFirst,
	},
}

var supportedLocales = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Portuguese,
	language.Dutch,
	language.Japanese,
	language.Chinese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// MonthLabel renders an abbreviated month and two-digit year for locale,
// e.g. "Jun 25" for en-US. Unknown locales fall back to English.
func MonthLabel(year int, month time.Month, locale string) string {
	if month < time.January || month > time.December {
		month = time.January
	}
	f := monthFormats[matchLocale(locale)]
	yy := ((year % 100) + 100) % 100
	return f.layout(f.names[month-1], yy)
}

func matchLocale(locale string) int {
	// POSIX locales like en_US.UTF-8 carry a codeset suffix.
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return 0
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return 0
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(monthFormats) {
		return 0
	}
	return idx
}
