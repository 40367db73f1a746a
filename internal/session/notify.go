package session

import (
	"errors"
	"time"

	"incidencias-cli/internal/backend"
)

// ToastTTL is how long a toast stays on screen.
const ToastTTL = 4 * time.Second

type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastError
)

type Toast struct {
	Level ToastLevel
	Text  string
	At    time.Time
}

// Notify queues a toast for the feedback strip.
func (d *Dashboard) Notify(level ToastLevel, text string, now time.Time) {
	d.toasts = append(d.toasts, Toast{Level: level, Text: text, At: now})
}

// Toasts prunes expired entries and returns the live ones, oldest first.
func (d *Dashboard) Toasts(now time.Time) []Toast {
	live := d.toasts[:0]
	for _, t := range d.toasts {
		if now.Sub(t.At) < ToastTTL {
			live = append(live, t)
		}
	}
	d.toasts = live
	return live
}

// FriendlyAuthError maps the known sign-in failures to the message shown
// on the login form. Unknown errors pass through verbatim.
func FriendlyAuthError(err error) string {
	switch {
	case errors.Is(err, backend.ErrUserNotFound):
		return "No existe ninguna cuenta con ese email"
	case errors.Is(err, backend.ErrWrongPassword):
		return "Contraseña incorrecta"
	case errors.Is(err, backend.ErrInvalidEmail):
		return "El email no es válido"
	default:
		return err.Error()
	}
}
