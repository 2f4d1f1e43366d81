package annotator

import "context"

// Level classifies a notice
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-visible message, shown by the front end as a blocking
// dialog or status line
type Notice struct {
	Level Level  `json:"level"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Notifier presents notices to the user
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Prompter asks the user for a class name and blocks until answered.
// ok is false when the prompt was cancelled.
type Prompter interface {
	PromptClass(ctx context.Context) (class string, ok bool)
}

// PrompterFunc adapts a function to Prompter
type PrompterFunc func(ctx context.Context) (string, bool)

// PromptClass calls f(ctx)
func (f PrompterFunc) PromptClass(ctx context.Context) (string, bool) { return f(ctx) }

// Recorder collects notices, e.g. for one HTTP request
type Recorder struct {
	Notices []Notice
}

// Notify appends n
func (r *Recorder) Notify(n Notice) { r.Notices = append(r.Notices, n) }

// Drain returns the collected notices and clears the recorder
func (r *Recorder) Drain() []Notice {
	out := r.Notices
	r.Notices = nil
	return out
}
