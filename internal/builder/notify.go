package builder

import (
	"sync"

	"github.com/jonathan/resume-builder/internal/client"
	"github.com/jonathan/resume-builder/internal/validation"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a user-visible message. Message never carries backend
// error text.
type Notification struct {
	Level    Level
	Title    string
	Message  string
	Category validation.Category
}

// Notifier receives notifications as they are raised.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discard struct{}

func (discard) Notify(Notification) {}

// Inbox records notifications in the order they were raised.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
}

func (in *Inbox) Notify(n Notification) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.items = append(in.items, n)
}

// All returns a copy of the recorded notifications.
func (in *Inbox) All() []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]Notification, len(in.items))
	copy(out, in.items)
	return out
}

// Last returns the most recent notification.
func (in *Inbox) Last() (Notification, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.items) == 0 {
		return Notification{}, false
	}
	return in.items[len(in.items)-1], true
}

// Clear drops everything recorded so far.
func (in *Inbox) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.items = nil
}

func success(title, message string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: message}
}

func invalid(title, message string) Notification {
	return Notification{Level: LevelError, Title: title, Message: message, Category: validation.CategoryValidation}
}

// failure builds an error notification for err. The category comes from the
// API error when it has one, otherwise fallback applies.
func failure(title string, fallback validation.Category, err error) Notification {
	category := client.Category(err)
	if category == "" {
		category = fallback
	}
	return Notification{
		Level:    LevelError,
		Title:    title,
		Message:  validation.GenericErrorMessage(category),
		Category: category,
	}
}
