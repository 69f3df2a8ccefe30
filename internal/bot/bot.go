package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/notify"
	"diligence-tracker/internal/service"
	"diligence-tracker/internal/tracker"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbConfirmPrefix  = "confirm:"
	cbCancelPrefix   = "cancel:"
)

const (
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	menuLabelDeals   = "💼 Deals"
	menuLabelDigest  = "📋 Digest"
	menuLabelHelp    = "ℹ️ Help"
	msgNotLinked     = "Your account is not linked yet. Send /link &lt;email&gt; with your team email."
	msgRequestAbsent = "Request not found."
)

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	requestID uint
	action    confirmationAction
}

// api is the part of the Telegram client the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Services are the tracker operations reachable from chat.
type Services struct {
	Members    *service.MemberService
	Deals      *service.DealService
	Requests   *service.RequestService
	Categories *service.CategoryService
	Digest     *service.DigestService
}

// Bot connects team members to the tracker over Telegram. It also delivers
// notifications and daily digests to every linked member.
type Bot struct {
	api           api
	svc           Services
	now           func() time.Time
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, svc Services) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", client.Self.UserName)
	return newBot(client, svc), nil
}

func newBot(client api, svc Services) *Bot {
	return &Bot{
		api:           client,
		svc:           svc,
		now:           time.Now,
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("[error] handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("[error] handle message: %v", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Try /deals or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "link":
		return b.handleLink(ctx, msg)
	case "deals":
		return b.handleDeals(ctx, msg)
	case "requests":
		return b.handleRequests(ctx, msg)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "digest":
		return b.handleDigest(ctx, msg)
	case "cancel":
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep you up to date on due diligence requests.</b>\n\n", escape(name))
	if _, err := b.member(ctx, msg.From.ID); err != nil {
		text += msgNotLinked + "\n\n"
	}
	return b.sendText(msg.Chat.ID, text+helpText)
}

const helpText = "Commands:\n" +
	"• /deals — active deals and their progress\n" +
	"• /requests &lt;deal id&gt; — open requests grouped by category\n" +
	"• /complete &lt;id&gt; — mark a request completed\n" +
	"• /delete &lt;id&gt; — delete a request\n" +
	"• /digest [deal id] — overdue and due-soon requests\n" +
	"• /link &lt;email&gt; — link this chat to your team account\n" +
	"• /cancel — cancel a pending confirmation"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	email := strings.TrimSpace(msg.CommandArguments())
	if email == "" {
		return b.sendText(msg.Chat.ID, "Send your team email: /link jane@example.com")
	}
	m, err := b.svc.Members.LinkTelegram(ctx, email, msg.From.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "No team member uses that email.")
		}
		return err
	}
	log.Printf("[info] telegram %d linked to member %d", msg.From.ID, m.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Linked to %s.", escape(m.DisplayName())))
}

func (b *Bot) handleDeals(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.member(ctx, msg.From.ID); err != nil {
		return b.replyMemberError(msg.Chat.ID, err)
	}
	deals, err := b.svc.Deals.List(ctx)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatDeals(deals))
}

func (b *Bot) handleRequests(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.member(ctx, msg.From.ID); err != nil {
		return b.replyMemberError(msg.Chat.ID, err)
	}
	dealID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the deal id: /requests 3")
	}
	return b.sendRequestList(ctx, msg.Chat.ID, dealID)
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.member(ctx, msg.From.ID); err != nil {
		return b.replyMemberError(msg.Chat.ID, err)
	}
	id, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the request id: /complete 12")
	}
	return b.askConfirmation(ctx, msg.Chat.ID, msg.From.ID, id, actionComplete)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.member(ctx, msg.From.ID); err != nil {
		return b.replyMemberError(msg.Chat.ID, err)
	}
	id, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the request id: /delete 12")
	}
	return b.askConfirmation(ctx, msg.Chat.ID, msg.From.ID, id, actionDelete)
}

func (b *Bot) handleDigest(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.member(ctx, msg.From.ID); err != nil {
		return b.replyMemberError(msg.Chat.ID, err)
	}
	var (
		text string
		err  error
	)
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		dealID, perr := parseID(args)
		if perr != nil {
			return b.sendText(msg.Chat.ID, "Deal id must be a number.")
		}
		text, err = b.svc.Digest.Deal(ctx, dealID, b.now())
	} else {
		text, err = b.svc.Digest.Daily(ctx, b.now())
	}
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(msg.Chat.ID, "Deal not found.")
	}
	if err != nil {
		return b.sendText(msg.Chat.ID, "Could not build the digest.")
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	switch strings.TrimSpace(msg.Text) {
	case btnConfirm:
		b.clearConfirmation(msg.From.ID)
		return b.execute(ctx, msg.Chat.ID, msg.From.ID, req)
	case btnCancel:
		b.clearConfirmation(msg.From.ID)
		return b.sendTextWithRemove(msg.Chat.ID, "Cancelled.")
	default:
		prompt := "Confirm or cancel completing the request."
		if req.action == actionDelete {
			prompt = "Confirm or cancel deleting the request."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[warn] callback ack: %v", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	log.Printf("[info] callback %q from %d", data, cb.From.ID)

	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		if id, err := parseID(strings.TrimPrefix(data, cbCompletePrefix)); err == nil {
			return b.askConfirmation(ctx, chatID, cb.From.ID, id, actionComplete)
		}
	case strings.HasPrefix(data, cbDeletePrefix):
		if id, err := parseID(strings.TrimPrefix(data, cbDeletePrefix)); err == nil {
			return b.askConfirmation(ctx, chatID, cb.From.ID, id, actionDelete)
		}
	case strings.HasPrefix(data, cbConfirmPrefix):
		pending, ok := b.getConfirmation(cb.From.ID)
		id, err := parseID(strings.TrimPrefix(data, cbConfirmPrefix))
		if !ok || err != nil || pending.requestID != id {
			return b.sendText(chatID, "Nothing to confirm.")
		}
		b.clearConfirmation(cb.From.ID)
		return b.execute(ctx, chatID, cb.From.ID, pending)
	case strings.HasPrefix(data, cbCancelPrefix):
		b.clearConfirmation(cb.From.ID)
		return b.sendText(chatID, "Cancelled.")
	}
	return nil
}

// askConfirmation stores the pending action and asks the member to confirm.
// Nothing changes until the confirmation arrives.
func (b *Bot) askConfirmation(ctx context.Context, chatID, userID int64, requestID uint, action confirmationAction) error {
	if _, err := b.member(ctx, userID); err != nil {
		return b.replyMemberError(chatID, err)
	}
	req, err := b.svc.Requests.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, msgRequestAbsent)
		}
		return err
	}
	if action == actionComplete && req.IsCompleted() {
		return b.sendText(chatID, "The request is already completed.")
	}

	verb := "Mark as completed"
	if action == actionDelete {
		verb = "Delete"
	}
	text := fmt.Sprintf("%s «%s» (#%d)?", verb, escape(normalizeTitle(req.Title)), req.ID)
	b.setConfirmation(userID, confirmationRequest{requestID: req.ID, action: action})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnConfirm, fmt.Sprintf("%s%d", cbConfirmPrefix, req.ID)),
		tgbotapi.NewInlineKeyboardButtonData(btnCancel, fmt.Sprintf("%s%d", cbCancelPrefix, req.ID)),
	))
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) execute(ctx context.Context, chatID, userID int64, pending confirmationRequest) error {
	m, err := b.member(ctx, userID)
	if err != nil {
		return b.replyMemberError(chatID, err)
	}
	req, err := b.svc.Requests.Get(ctx, pending.requestID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendTextWithRemove(chatID, "Request not found or already deleted.")
		}
		return err
	}

	var info string
	switch pending.action {
	case actionDelete:
		if err := b.svc.Requests.Delete(ctx, req.ID, m.ID); err != nil {
			log.Printf("[error] delete request %d from chat: %v", req.ID, err)
			return b.sendTextWithRemove(chatID, "Failed to delete request.")
		}
		info = fmt.Sprintf("🗑 Request «%s» deleted.", escape(normalizeTitle(req.Title)))
	default:
		if err := b.svc.Requests.ApplyChange(ctx, req.ID, service.SetStatus(model.StatusCompleted), m.ID); err != nil {
			log.Printf("[error] complete request %d from chat: %v", req.ID, err)
			return b.sendTextWithRemove(chatID, service.MsgUpdateFailed+".")
		}
		info = fmt.Sprintf("✅ Request «%s» completed.", escape(normalizeTitle(req.Title)))
	}
	if err := b.sendTextWithRemove(chatID, info); err != nil {
		return err
	}
	return b.sendRequestList(ctx, chatID, req.DealID)
}

// sendRequestList shows the open requests of a deal by category, with a
// complete button per request.
func (b *Bot) sendRequestList(ctx context.Context, chatID int64, dealID uint) error {
	deal, err := b.svc.Deals.Get(ctx, dealID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Deal not found.")
		}
		return err
	}
	groups, err := b.svc.Requests.Grouped(ctx, dealID, tracker.Criteria{}, tracker.DefaultOrder)
	if err != nil {
		return err
	}

	text, buttons := formatRequestList(*deal, groups, b.now())
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.api.Send(msg)
	return err
}

// Notify sends n to its member, or to every linked member when n is shared.
func (b *Bot) Notify(ctx context.Context, n notify.Notification) {
	b.sendToMembers(ctx, formatNotification(n), n.MemberID)
}

// SendDailyDigest sends the daily digest to every linked member.
func (b *Bot) SendDailyDigest(ctx context.Context) error {
	text, err := b.svc.Digest.Daily(ctx, b.now())
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	b.sendToMembers(ctx, text, 0)
	return nil
}

// sendToMembers sends text to the linked members; a non-zero only limits it
// to that member.
func (b *Bot) sendToMembers(ctx context.Context, text string, only uint) {
	members, err := b.svc.Members.List(ctx)
	if err != nil {
		log.Printf("[error] list members for broadcast: %v", err)
		return
	}
	for _, m := range members {
		if m.TelegramID == nil || (only != 0 && m.ID != only) {
			continue
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		msg := tgbotapi.NewMessage(*m.TelegramID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("[warn] send to member %d: %v", m.ID, err)
		}
	}
}

func (b *Bot) member(ctx context.Context, telegramID int64) (*model.TeamMember, error) {
	return b.svc.Members.FindByTelegramID(ctx, telegramID)
}

func (b *Bot) replyMemberError(chatID int64, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(chatID, msgNotLinked)
	}
	return err
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelDeals:
		return true, b.handleDeals(ctx, msg)
	case menuLabelDigest:
		return true, b.handleDigest(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func parseID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(value), nil
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelDeals),
			tgbotapi.NewKeyboardButton(menuLabelDigest),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
