package cli

import "github.com/fatih/color"

func renderStatus(status string) string {
	switch status {
	case "new":
		return color.New(color.FgWhite).Sprint(status)
	case "in_progress":
		return color.New(color.FgCyan).Sprint(status)
	case "paused":
		return color.New(color.FgYellow).Sprint(status)
	case "completed":
		return color.New(color.FgGreen).Sprint(status)
	case "needs_patch":
		return color.New(color.FgMagenta).Sprint(status)
	default:
		return status
	}
}

func statusIcon(status string) string {
	switch status {
	case "completed":
		return color.New(color.FgGreen).Sprint("●")
	case "in_progress":
		return color.New(color.FgCyan).Sprint("◐")
	case "paused":
		return color.New(color.FgYellow).Sprint("◑")
	case "needs_patch":
		return color.New(color.FgMagenta).Sprint("◍")
	default:
		return "○"
	}
}

func renderVerdict(verdict string) string {
	switch verdict {
	case "pass":
		return color.New(color.FgGreen).Sprint("PASS")
	case "warn":
		return color.New(color.FgYellow).Sprint("WARN")
	case "fail":
		return color.New(color.FgRed).Sprint("FAIL")
	default:
		return verdict
	}
}

func renderUrgency(urgency string) string {
	switch urgency {
	case "blocking":
		return color.New(color.FgRed).Sprint(urgency)
	case "next_wave":
		return color.New(color.FgYellow).Sprint(urgency)
	default:
		return urgency
	}
}
