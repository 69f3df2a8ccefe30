package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/notify"
	"diligence-tracker/internal/tracker"
)

const (
	iconDefault = "🟢"
	iconDue     = "⏳"
	iconOverdue = "⚠️"
	iconBlocked = "⛔"
	iconOther   = "📁"
	iconSection = "🏷️"
)

func formatDeals(deals []model.Deal) string {
	if len(deals) == 0 {
		return "No deals yet."
	}
	var b strings.Builder
	b.WriteString("💼 <b>Deals</b>\n")
	for _, d := range deals {
		b.WriteString(fmt.Sprintf("• <b>#%d</b> %s · %d%% (%d/%d)", d.ID, escape(d.CompanyName), d.Progress, d.CompletedRequests, d.TotalRequests))
		if d.Status != model.DealActive {
			b.WriteString(fmt.Sprintf(" <i>%s</i>", escape(strings.ReplaceAll(d.Status, "_", " "))))
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

// formatRequestList renders open requests by category section and returns a
// complete button row per request.
func formatRequestList(deal model.Deal, groups []tracker.Group, now time.Time) (string, [][]tgbotapi.InlineKeyboardButton) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>%s</b> · %d%% complete\n\n", escape(deal.CompanyName), deal.Progress))

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, g := range groups {
		var open []model.Request
		for _, r := range g.Requests {
			if !r.IsCompleted() {
				open = append(open, r)
			}
		}
		if len(open) == 0 {
			continue
		}
		b.WriteString(sectionLabel(g))
		b.WriteByte('\n')
		for _, r := range open {
			b.WriteString(formatRequest(r, now))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", r.ID, shortTitle(r.Title, 24)), fmt.Sprintf("%s%d", cbCompletePrefix, r.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, r.ID)),
			))
		}
	}
	if len(buttons) == 0 {
		b.WriteString("No open requests. 🎉")
	}
	return strings.TrimSpace(b.String()), buttons
}

func sectionLabel(g tracker.Group) string {
	icon := iconSection
	if g.Other {
		icon = iconOther
	}
	return fmt.Sprintf("%s <b>%s</b>", icon, escape(normalizeTitle(g.Name)))
}

func formatRequest(r model.Request, now time.Time) string {
	var b strings.Builder
	icon := iconDefault
	switch {
	case r.Status == model.StatusBlocked:
		icon = iconBlocked
	case r.DueDate != nil && now.After(*r.DueDate):
		icon = iconOverdue
	case r.DueDate != nil && r.DueDate.Sub(now) <= 48*time.Hour:
		icon = iconDue
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, r.ID, escape(normalizeTitle(r.Title))))
	if r.Priority == model.PriorityHigh {
		b.WriteString(" 🔥")
	}
	b.WriteByte('\n')
	if r.DueDate != nil {
		d := r.DueDate.In(now.Location())
		if now.After(d) {
			b.WriteString(fmt.Sprintf("   ⏰ due %s · <b>overdue</b>\n", d.Format("2006-01-02")))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			b.WriteString(fmt.Sprintf("   ⏰ due %s · ≈%dd left\n", d.Format("2006-01-02"), daysLeft))
		}
	}
	return b.String()
}

func formatNotification(n notify.Notification) string {
	icon := "ℹ️"
	switch n.Level {
	case notify.Success:
		icon = "✅"
	case notify.Warning:
		icon = iconOverdue
	case notify.Error:
		icon = "❌"
	}
	return fmt.Sprintf("%s %s", icon, escape(n.Message))
}

func shortTitle(title string, maxLen int) string {
	clean := normalizeTitle(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
