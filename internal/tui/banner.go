package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderBanner returns the branded header for a screen.
func RenderBanner(styles *StyleSet, subtitle, version string, width int) string {
	if version == "" {
		version = "dev"
	}

	brand := styles.Banner.Render("◆  G L E W L W Y D") + "  " + styles.VersionPill.Render("v"+version)
	sub := styles.Subtitle.Render(subtitle)

	dividerWidth := width - 4
	if dividerWidth < 20 {
		dividerWidth = 20
	}
	if dividerWidth > 60 {
		dividerWidth = 60
	}
	divider := lipgloss.NewStyle().
		Foreground(styles.Theme.Border).
		Render(strings.Repeat("─", dividerWidth))

	return fmt.Sprintf("  %s\n  %s\n  %s\n\n", brand, sub, divider)
}

// RenderToast renders a notification as a single badge line.
func RenderToast(styles *StyleSet, n NotificationMsg) string {
	label := strings.ToUpper(string(n.Level))
	return "  " + styles.ToastStyle(n.Level).Render(label) + " " + styles.PrimaryTxt.Render(n.Message) + "\n"
}

// RenderConfirm renders the confirmation dialog.
func RenderConfirm(styles *StyleSet, c ConfirmMsg, width int) string {
	boxWidth := width - 8
	if boxWidth < 30 {
		boxWidth = 30
	}
	body := styles.Title.Render(c.Title) + "\n\n" +
		styles.PrimaryTxt.Render(c.Message) + "\n\n" +
		styles.KbdKey.Render("y") + " " + styles.KbdDesc.Render("confirm") + "    " +
		styles.KbdKey.Render("n") + " " + styles.KbdDesc.Render("keep")
	return "  " + styles.Dialog.Width(boxWidth).Render(body) + "\n"
}
