package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/tracker"
)

// DueSoonWindow marks open requests due within this window in digests.
const DueSoonWindow = 48 * time.Hour

// DigestService builds human-readable summaries for daily notifications.
type DigestService struct {
	deals      *DealService
	requests   *RequestService
	categories *CategoryService
}

func NewDigestService(deals *DealService, requests *RequestService, categories *CategoryService) *DigestService {
	return &DigestService{deals: deals, requests: requests, categories: categories}
}

// Daily lists, for every active deal, the open requests that are overdue or
// due soon, earliest first.
func (s *DigestService) Daily(ctx context.Context, now time.Time) (string, error) {
	deals, err := s.deals.List(ctx)
	if err != nil {
		return "", err
	}
	catNames, err := s.categories.Names(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("📋 <b>Due diligence digest</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("2006-01-02")))

	var active int
	for _, deal := range deals {
		if deal.Status != model.DealActive {
			continue
		}
		active++
		section, err := s.dealSection(ctx, deal, catNames, now)
		if err != nil {
			return "", err
		}
		b.WriteString("\n")
		b.WriteString(section)
	}
	if active == 0 {
		b.WriteString("\n— no active deals\n")
	}
	return strings.TrimSpace(b.String()), nil
}

// Deal is the digest section of a single deal.
func (s *DigestService) Deal(ctx context.Context, dealID uint, now time.Time) (string, error) {
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return "", err
	}
	catNames, err := s.categories.Names(ctx)
	if err != nil {
		return "", err
	}
	section, err := s.dealSection(ctx, *deal, catNames, now)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(section), nil
}

func (s *DigestService) dealSection(ctx context.Context, deal model.Deal, catNames map[uint]string, now time.Time) (string, error) {
	requests, err := s.requests.All(ctx, deal.ID)
	if err != nil {
		return "", err
	}
	var urgent []model.Request
	for _, r := range requests {
		if r.IsCompleted() || r.DueDate == nil {
			continue
		}
		if r.DueDate.Sub(now) <= DueSoonWindow {
			urgent = append(urgent, r)
		}
	}
	urgent = tracker.Sort(urgent, tracker.DefaultOrder)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏢 <b>%s</b> · %d%% complete\n", html.EscapeString(deal.CompanyName), deal.Progress))
	if len(urgent) == 0 {
		b.WriteString("— nothing overdue\n")
		return b.String(), nil
	}
	for _, r := range urgent {
		b.WriteString(formatRequest(r, catNames, now))
	}
	return b.String(), nil
}

func formatRequest(r model.Request, catNames map[uint]string, now time.Time) string {
	var sb strings.Builder

	due := r.DueDate.In(now.Location())
	overdue := now.After(due)
	icon := "⏳"
	if overdue {
		icon = "⚠️"
	}
	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, r.ID, html.EscapeString(strings.TrimSpace(r.Title))))

	if name := strings.TrimSpace(catNames[r.CategoryID]); name != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
	}
	if overdue {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · <b>overdue</b>", due.Format("2006-01-02")))
	} else {
		hoursLeft := int(due.Sub(now).Hours())
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · ≈%dh left", due.Format("2006-01-02"), hoursLeft))
	}
	if r.Priority == model.PriorityHigh {
		sb.WriteString(" · 🔥 high")
	}

	sb.WriteByte('\n')
	return sb.String()
}
