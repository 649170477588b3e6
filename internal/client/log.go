package client

import "fmt"

// EntryKind distinguishes user messages from system announcements.
type EntryKind int

const (
	EntryUser EntryKind = iota
	EntrySystem
)

// Entry is one display unit of the conversation log. Content may hold several
// newline-joined fragments when later messages were absorbed into it.
type Entry struct {
	Author  string
	Content string
	Color   string
	Time    string // minute-granularity display time
	Kind    EntryKind
}

// Reduce folds an entry into the log. When the previous entry has the same
// author and the same display time the new content is absorbed into it with a
// newline separator; otherwise the entry is appended. The input slice is never
// mutated, so callers can hold earlier log snapshots safely.
func Reduce(log []Entry, e Entry) []Entry {
	n := len(log)
	if n > 0 && log[n-1].Author == e.Author && log[n-1].Time == e.Time {
		out := make([]Entry, n)
		copy(out, log)
		out[n-1].Content += "\n" + e.Content
		return out
	}
	out := make([]Entry, n, n+1)
	copy(out, log)
	return append(out, e)
}

// entryFromFrame converts a chat or presence frame into its log entry.
// Presence frames become System entries; the server's announcement text is
// used when present so replayed history matches live announcements.
func entryFromFrame(f Frame) Entry {
	if f.Kind == FramePresence {
		content := f.Content
		if content == "" {
			content = fmt.Sprintf("%s has %s.", f.Subject, f.Action)
		}
		author := f.User
		if author == "" {
			author = SystemAuthor
		}
		return Entry{
			Author:  author,
			Content: content,
			Color:   f.Color,
			Time:    f.FormattedTime,
			Kind:    EntrySystem,
		}
	}
	return Entry{
		Author:  f.User,
		Content: f.Content,
		Color:   f.Color,
		Time:    f.FormattedTime,
		Kind:    EntryUser,
	}
}
