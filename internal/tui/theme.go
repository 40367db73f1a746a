package tui

import (
	"github.com/charmbracelet/lipgloss"

	"incidencias-cli/internal/model"
	"incidencias-cli/internal/session"
)

// Adaptive palette so the dashboard stays readable on light terminals.
var (
	colorAccent    = lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#5FAFD7"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	colorSurfaceFg = lipgloss.AdaptiveColor{Light: "#1C1C1C", Dark: "#D0D0D0"}
	colorDanger    = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	colorWarn      = lipgloss.AdaptiveColor{Light: "#AF5F00", Dark: "#FFAF5F"}
	colorOK        = lipgloss.AdaptiveColor{Light: "#005F00", Dark: "#5FD75F"}
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorDanger)
	successStyle  = lipgloss.NewStyle().Foreground(colorOK)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Reverse(true)
	chipStyle     = lipgloss.NewStyle().Foreground(colorAccent).Padding(0, 1).Border(lipgloss.RoundedBorder())
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	helpStyle     = lipgloss.NewStyle().Foreground(colorMuted)
)

func statusLabel(st model.Status) string {
	switch st {
	case model.StatusOpen:
		return "Abierta"
	case model.StatusInProgress:
		return "En proceso"
	case model.StatusClosed:
		return "Cerrada"
	}
	return string(st)
}

func statusStyle(st model.Status) lipgloss.Style {
	switch st {
	case model.StatusInProgress:
		return lipgloss.NewStyle().Foreground(colorWarn)
	case model.StatusClosed:
		return lipgloss.NewStyle().Foreground(colorOK)
	default:
		return lipgloss.NewStyle().Foreground(colorAccent)
	}
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "CRÍTICA"
	case model.PriorityHigh:
		return "Alta"
	case model.PriorityMedium:
		return "Media"
	case model.PriorityLow:
		return "Baja"
	}
	return string(p)
}

func priorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityCritical:
		return lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(colorDanger)
	case model.PriorityLow:
		return mutedStyle
	default:
		return lipgloss.NewStyle().Foreground(colorSurfaceFg)
	}
}

func toastStyle(level session.ToastLevel) lipgloss.Style {
	switch level {
	case session.ToastError:
		return errorStyle
	case session.ToastSuccess:
		return successStyle
	default:
		return mutedStyle
	}
}
