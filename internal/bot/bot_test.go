package bot

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/events"
	"diligence-tracker/internal/model"
	"diligence-tracker/internal/notify"
	"diligence-tracker/internal/repository"
	"diligence-tracker/internal/service"
	"diligence-tracker/internal/tracker"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no message sent")
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) all() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type botEnv struct {
	bot  *Bot
	api  *fakeAPI
	svc  Services
	deal model.Deal
	cat  model.Category
	jane model.TeamMember
}

const janeChat int64 = 4242

func setupBot(t *testing.T) *botEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	qc := cache.New(0)
	bus := events.NewBus()
	t.Cleanup(bus.Wait)

	requestRepo := repository.NewRequestRepository(db)
	categories := service.NewCategoryService(repository.NewCategoryRepository(db), qc)
	deals := service.NewDealService(repository.NewDealRepository(db), requestRepo, qc)
	requests := service.NewRequestService(requestRepo, categories, deals, qc, bus)
	svc := Services{
		Members:    service.NewMemberService(repository.NewMemberRepository(db), qc),
		Deals:      deals,
		Requests:   requests,
		Categories: categories,
		Digest:     service.NewDigestService(deals, requests, categories),
	}

	e := &botEnv{api: &fakeAPI{}, svc: svc}
	e.bot = newBot(e.api, svc)
	e.bot.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	e.deal = model.Deal{CompanyName: "Acme Corp"}
	if err := deals.Create(ctx, &e.deal); err != nil {
		t.Fatal(err)
	}
	e.cat = model.Category{Name: "Legal"}
	if err := categories.Create(ctx, &e.cat); err != nil {
		t.Fatal(err)
	}
	e.jane = model.TeamMember{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	if err := svc.Members.Create(ctx, &e.jane); err != nil {
		t.Fatal(err)
	}
	return e
}

func (e *botEnv) command(t *testing.T, text string) {
	t.Helper()
	name := strings.SplitN(text, " ", 2)[0]
	msg := &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: janeChat, Type: "private"},
		From:     &tgbotapi.User{ID: janeChat, FirstName: "Jane"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
	if err := e.bot.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("%s: %v", text, err)
	}
}

func (e *botEnv) callback(t *testing.T, data string) {
	t.Helper()
	cb := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: janeChat},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: janeChat, Type: "private"}},
		Data:    data,
	}
	if err := e.bot.handleCallback(context.Background(), cb); err != nil {
		t.Fatalf("callback %s: %v", data, err)
	}
}

func (e *botEnv) newRequest(t *testing.T, title string) *model.Request {
	t.Helper()
	req, err := e.svc.Requests.Create(context.Background(), e.deal.ID, service.RequestInput{
		CategoryID: e.cat.ID,
		Title:      title,
	}, 0)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func TestCommandsRequireLinkedAccount(t *testing.T) {
	e := setupBot(t)

	e.command(t, "/deals")
	if got := e.api.last(t).Text; got != msgNotLinked {
		t.Fatalf("unlinked reply = %q", got)
	}

	e.command(t, "/link nobody@example.com")
	if got := e.api.last(t).Text; !strings.Contains(got, "No team member") {
		t.Fatalf("unknown email reply = %q", got)
	}

	e.command(t, "/link jane@example.com")
	if got := e.api.last(t).Text; !strings.Contains(got, "Jane Doe") {
		t.Fatalf("link reply = %q", got)
	}
	e.command(t, "/deals")
	if got := e.api.last(t).Text; !strings.Contains(got, "Acme Corp") {
		t.Fatalf("deals reply = %q", got)
	}
}

func TestCompleteNeedsConfirmation(t *testing.T) {
	e := setupBot(t)
	e.command(t, "/link jane@example.com")
	req := e.newRequest(t, "Share register")
	ctx := context.Background()

	e.command(t, "/complete "+itoa(req.ID))
	if _, ok := e.bot.getConfirmation(janeChat); !ok {
		t.Fatal("expected a pending confirmation")
	}
	got, _ := e.svc.Requests.Get(ctx, req.ID)
	if got.IsCompleted() {
		t.Fatal("request completed before confirmation")
	}

	e.callback(t, cbConfirmPrefix+itoa(req.ID))
	got, _ = e.svc.Requests.Get(ctx, req.ID)
	if !got.IsCompleted() || got.CompletedAt == nil {
		t.Fatalf("request after confirm = %+v", got)
	}
	if got.UpdatedBy == nil || *got.UpdatedBy != e.jane.ID {
		t.Fatalf("UpdatedBy = %v, want %d", got.UpdatedBy, e.jane.ID)
	}
	if _, ok := e.bot.getConfirmation(janeChat); ok {
		t.Fatal("confirmation should be cleared")
	}
}

func TestDeleteCancelKeepsRequest(t *testing.T) {
	e := setupBot(t)
	e.command(t, "/link jane@example.com")
	req := e.newRequest(t, "Material contracts")

	e.callback(t, cbDeletePrefix+itoa(req.ID))
	e.callback(t, cbCancelPrefix+itoa(req.ID))
	if _, err := e.svc.Requests.Get(context.Background(), req.ID); err != nil {
		t.Fatalf("request should survive cancel: %v", err)
	}

	e.command(t, "/delete "+itoa(req.ID))
	e.callback(t, cbConfirmPrefix+itoa(req.ID))
	if _, err := e.svc.Requests.Get(context.Background(), req.ID); err == nil {
		t.Fatal("request should be deleted")
	}
}

func TestConfirmWithoutPendingIsIgnored(t *testing.T) {
	e := setupBot(t)
	e.command(t, "/link jane@example.com")
	req := e.newRequest(t, "Insurance policies")

	e.callback(t, cbConfirmPrefix+itoa(req.ID))
	if got := e.api.last(t).Text; got != "Nothing to confirm." {
		t.Fatalf("reply = %q", got)
	}
	got, _ := e.svc.Requests.Get(context.Background(), req.ID)
	if got.IsCompleted() {
		t.Fatal("request should be untouched")
	}
}

func TestRequestListShowsOpenRequestsWithButtons(t *testing.T) {
	e := setupBot(t)
	e.command(t, "/link jane@example.com")
	open := e.newRequest(t, "Litigation summary")
	done := e.newRequest(t, "Articles of association")
	if err := e.svc.Requests.ApplyChange(context.Background(), done.ID, service.SetStatus(model.StatusCompleted), 0); err != nil {
		t.Fatal(err)
	}

	e.command(t, "/requests "+itoa(e.deal.ID))
	msg := e.api.last(t)
	if !strings.Contains(msg.Text, "Litigation summary") || strings.Contains(msg.Text, "Articles") {
		t.Fatalf("list text = %q", msg.Text)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 {
		t.Fatalf("keyboard = %#v", msg.ReplyMarkup)
	}
	if data := *kb.InlineKeyboard[0][0].CallbackData; data != cbCompletePrefix+itoa(open.ID) {
		t.Fatalf("callback data = %q", data)
	}
}

func TestNotifyBroadcastsToLinkedMembers(t *testing.T) {
	e := setupBot(t)
	ctx := context.Background()
	other := model.TeamMember{FirstName: "Sam", Email: "sam@example.com"}
	if err := e.svc.Members.Create(ctx, &other); err != nil {
		t.Fatal(err)
	}
	e.command(t, "/link jane@example.com")
	before := len(e.api.all())

	e.bot.Notify(ctx, notify.Notification{Level: notify.Warning, Message: "Some updates failed (1 of 3)"})

	sent := e.api.all()[before:]
	if len(sent) != 1 || sent[0].ChatID != janeChat {
		t.Fatalf("sent = %+v", sent)
	}
	if !strings.Contains(sent[0].Text, "Some updates failed (1 of 3)") {
		t.Fatalf("text = %q", sent[0].Text)
	}
}

func TestNotifyAddressedGoesToOneMember(t *testing.T) {
	e := setupBot(t)
	ctx := context.Background()
	sam := model.TeamMember{FirstName: "Sam", Email: "sam@example.com"}
	if err := e.svc.Members.Create(ctx, &sam); err != nil {
		t.Fatal(err)
	}
	const samChat int64 = 5151
	if _, err := e.svc.Members.LinkTelegram(ctx, "sam@example.com", samChat); err != nil {
		t.Fatal(err)
	}
	e.command(t, "/link jane@example.com")
	before := len(e.api.all())

	e.bot.Notify(ctx, notify.Notification{Level: notify.Error, Message: "Failed to update request", MemberID: sam.ID})

	sent := e.api.all()[before:]
	if len(sent) != 1 || sent[0].ChatID != samChat {
		t.Fatalf("sent = %+v", sent)
	}

	e.bot.Notify(ctx, notify.Notification{Level: notify.Info, Message: "New broker message"})
	if shared := e.api.all()[before+1:]; len(shared) != 2 {
		t.Fatalf("shared notification reached %d members, want 2", len(shared))
	}
}

func TestFormatRequestMarksOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -2)
	soon := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		req  model.Request
		want string
	}{
		{"overdue", model.Request{ID: 1, Title: "a", Status: model.StatusOpen, DueDate: &past}, iconOverdue},
		{"due soon", model.Request{ID: 2, Title: "b", Status: model.StatusOpen, DueDate: &soon}, iconDue},
		{"blocked", model.Request{ID: 3, Title: "c", Status: model.StatusBlocked, DueDate: &past}, iconBlocked},
		{"no date", model.Request{ID: 4, Title: "d", Status: model.StatusOpen}, iconDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRequest(tt.req, now); !strings.HasPrefix(got, tt.want) {
				t.Fatalf("formatRequest = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestFormatRequestListOtherBucket(t *testing.T) {
	groups := []tracker.Group{
		{CategoryID: 9, Name: tracker.OtherName, Other: true, Requests: []model.Request{{ID: 5, Title: "orphan", Status: model.StatusOpen}}},
	}
	text, buttons := formatRequestList(model.Deal{CompanyName: "Acme"}, groups, time.Now())
	if !strings.Contains(text, iconOther+" <b>Other</b>") || len(buttons) != 1 {
		t.Fatalf("text = %q buttons = %d", text, len(buttons))
	}
}

func TestShortTitle(t *testing.T) {
	if got := shortTitle("quarterly management accounts", 10); got != "Quarterly…" {
		t.Fatalf("shortTitle = %q", got)
	}
	if got := shortTitle("tax", 10); got != "Tax" {
		t.Fatalf("shortTitle = %q", got)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
