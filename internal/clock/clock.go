package clock

import "time"

// Layout is the textual timestamp format used on the wire.
const Layout = "2006-01-02 15:04:05"

// Now is replaced in tests.
var Now = func() time.Time {
	return time.Now().UTC()
}

func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

func FormatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Format(*t)
	return &s
}
