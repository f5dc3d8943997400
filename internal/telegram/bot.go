package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/moviegate/postbot/internal/config"
	"github.com/moviegate/postbot/internal/flow"
	"github.com/moviegate/postbot/internal/service"
)

// Callback identifiers for inline keyboards.
const (
	cbCreatePost    = "menu_post"
	cbMyChannels    = "menu_channels"
	cbSetAdLink     = "menu_setad"
	cbSetClicks     = "menu_setclicks"
	cbPlans         = "menu_plans"
	cbRedeem        = "menu_redeem"
	cbGenerateCodes = "menu_gencodes"
	cbGrant         = "menu_grant"
	cbRevoke        = "menu_revoke"
	cbStats         = "menu_stats"
	cbFlowAddMore   = "flow_more"
	cbFlowFinalize  = "flow_done"
)

type ImageStorage interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type Bot struct {
	cfg          config.Config
	api          *tgbotapi.BotAPI
	log          *slog.Logger
	entitlements *service.EntitlementService
	settings     *service.SettingsService
	offers       *service.OfferService
	posts        *service.PostService
	flow         *flow.Manager
	pending      *StateManager
	storage      ImageStorage
	httpClient   *http.Client
}

func NewBot(cfg config.Config, api *tgbotapi.BotAPI, log *slog.Logger, entitlements *service.EntitlementService, settings *service.SettingsService, offers *service.OfferService, posts *service.PostService, storage ImageStorage) *Bot {
	return &Bot{
		cfg:          cfg,
		api:          api,
		log:          log,
		entitlements: entitlements,
		settings:     settings,
		offers:       offers,
		posts:        posts,
		flow:         flow.NewManager(),
		pending:      NewStateManager(),
		storage:      storage,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram bot started")

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 && b.flow.State(chatID) == flow.StatePoster {
		b.handlePosterPhoto(ctx, msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if b.pending.Get(chatID).action != pendingNone {
		b.handlePendingInput(ctx, chatID, msg.Text)
		return
	}

	if b.flow.Active(chatID) {
		b.handleFlowInput(ctx, chatID, msg.Text)
		return
	}

	b.sendText(chatID, "Send /start for the menu or /post to create a post.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.pending.Clear(chatID)
		b.sendMainMenu(chatID)
	case "post":
		b.startPost(ctx, chatID)
	case "cancel":
		b.pending.Clear(chatID)
		if b.flow.Cancel(chatID) {
			b.sendText(chatID, "Post creation cancelled. The draft was discarded.")
		} else {
			b.sendText(chatID, "Nothing to cancel.")
		}
	case "redeem":
		code := strings.TrimSpace(msg.CommandArguments())
		if code == "" {
			b.pending.Set(chatID, pendingState{action: pendingRedeemCode})
			b.sendText(chatID, "Send your premium code:")
			return
		}
		b.redeemCode(ctx, chatID, code)
	case "plans":
		b.sendPlans(ctx, chatID)
	case "setclicks":
		b.requireEntitled(ctx, chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingClickThreshold})
			b.sendText(chatID, "How many ad views before the real links unlock? (send a number, e.g. 3)")
		})
	case "setad":
		b.requireEntitled(ctx, chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingAdRedirectURL})
			b.sendText(chatID, "Send your ad direct link:")
		})
	case "addchannel":
		b.requireEntitled(ctx, chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingChannelName})
			b.sendText(chatID, "Channel name?")
		})
	case "channels":
		b.requireEntitled(ctx, chatID, func() {
			b.sendChannelList(ctx, chatID)
		})
	case "delchannel":
		b.requireEntitled(ctx, chatID, func() {
			id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
			if err != nil {
				b.sendText(chatID, "Usage: /delchannel <id> (see /channels for ids)")
				return
			}
			if err := b.settings.RemoveChannel(ctx, chatID, id); err != nil {
				b.log.Error("remove channel", "err", err)
				b.sendText(chatID, "Could not remove the channel, try again later.")
				return
			}
			b.sendText(chatID, "Channel removed.")
		})
	case "gencodes":
		b.requireOwner(chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingGenerateCodes})
			b.sendText(chatID, "Send: count | days (e.g. 5 | 7), or just a count for the default duration.")
		})
	case "grant":
		b.requireOwner(chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingGrant})
			b.sendText(chatID, "Send: user_id | days")
		})
	case "revoke":
		b.requireOwner(chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingRevoke})
			b.sendText(chatID, "Send the user_id to revoke:")
		})
	case "stats":
		b.requireOwner(chatID, func() {
			b.sendStats(ctx, chatID)
		})
	default:
		b.sendText(chatID, "Unknown command. Send /start for the menu.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	ack := ""

	switch cb.Data {
	case cbCreatePost:
		b.startPost(ctx, chatID)
	case cbMyChannels:
		b.requireEntitled(ctx, chatID, func() {
			b.sendChannelList(ctx, chatID)
		})
	case cbSetAdLink:
		b.requireEntitled(ctx, chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingAdRedirectURL})
			b.sendText(chatID, "Send your ad direct link:")
		})
	case cbSetClicks:
		b.requireEntitled(ctx, chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingClickThreshold})
			b.sendText(chatID, "How many ad views before the real links unlock? (send a number, e.g. 3)")
		})
	case cbPlans:
		b.sendPlans(ctx, chatID)
	case cbRedeem:
		b.pending.Set(chatID, pendingState{action: pendingRedeemCode})
		b.sendText(chatID, "Send your premium code:")
	case cbGenerateCodes:
		b.requireOwner(chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingGenerateCodes})
			b.sendText(chatID, "Send: count | days (e.g. 5 | 7), or just a count for the default duration.")
		})
	case cbGrant:
		b.requireOwner(chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingGrant})
			b.sendText(chatID, "Send: user_id | days")
		})
	case cbRevoke:
		b.requireOwner(chatID, func() {
			b.pending.Set(chatID, pendingState{action: pendingRevoke})
			b.sendText(chatID, "Send the user_id to revoke:")
		})
	case cbStats:
		b.requireOwner(chatID, func() {
			b.sendStats(ctx, chatID)
		})
	case cbFlowAddMore:
		b.resolveConfirm(ctx, chatID, flow.ChoiceAddMore)
	case cbFlowFinalize:
		b.resolveConfirm(ctx, chatID, flow.ChoiceFinalize)
	default:
		ack = "Unknown action"
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, ack)); err != nil {
		b.log.Error("callback ack", "err", err)
	}
}

// startPost is the workflow entry gate: entitlement is checked before any
// session state is created.
func (b *Bot) startPost(ctx context.Context, chatID int64) {
	ok, err := b.entitlements.Check(ctx, chatID)
	if err != nil {
		b.log.Error("entitlement check", "err", err)
		b.sendText(chatID, "Something went wrong, try again later.")
		return
	}
	if !ok {
		b.sendText(chatID, "This feature is for premium members only. See /plans or redeem a code with /redeem.")
		return
	}
	b.pending.Clear(chatID)
	prompt := b.flow.Start(chatID)
	b.sendPrompt(chatID, prompt)
}

func (b *Bot) handleFlowInput(ctx context.Context, chatID int64, text string) {
	prompt, err := b.flow.Input(chatID, text)
	switch {
	case errors.Is(err, flow.ErrEmptyInput):
		b.sendText(chatID, "Please send a text value.")
		b.sendPrompt(chatID, prompt)
		return
	case errors.Is(err, flow.ErrAwaitingChoice):
		b.sendConfirmKeyboard(chatID)
		return
	case err != nil:
		b.sendText(chatID, "Send /post to start creating a post.")
		return
	}
	b.sendPrompt(chatID, prompt)
}

func (b *Bot) resolveConfirm(ctx context.Context, chatID int64, choice flow.Choice) {
	draft, prompt, err := b.flow.Choose(chatID, choice)
	if err != nil {
		b.sendText(chatID, "Nothing to confirm. Send /post to start over.")
		return
	}
	if choice == flow.ChoiceAddMore {
		b.sendPrompt(chatID, prompt)
		return
	}

	result, err := b.posts.Finalize(ctx, chatID, draft)
	if err != nil {
		b.log.Error("finalize post", "err", err)
		b.sendText(chatID, "Could not generate the post, try again later.")
		return
	}

	b.sendText(chatID, fmt.Sprintf("Post created!\n\nPreview: %s", result.URL))
	escaped := html.EscapeString(result.HTML)
	codeMsg := tgbotapi.NewMessage(chatID, "<code>"+escaped+"</code>")
	codeMsg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(codeMsg); err != nil {
		b.log.Error("send post html", "err", err)
	}
}

func (b *Bot) handlePendingInput(ctx context.Context, chatID int64, text string) {
	state := b.pending.Get(chatID)
	text = strings.TrimSpace(text)

	switch state.action {
	case pendingClickThreshold:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			b.sendText(chatID, "Numbers only, at least 1. Try again:")
			return
		}
		b.pending.Clear(chatID)
		if err := b.settings.SetClickThreshold(ctx, chatID, n); err != nil {
			b.log.Error("set click threshold", "err", err)
			b.sendText(chatID, "Could not save the setting, try again later.")
			return
		}
		b.sendText(chatID, fmt.Sprintf("Saved: %d clicks to unlock.", n))

	case pendingAdRedirectURL:
		b.pending.Clear(chatID)
		if err := b.settings.SetAdRedirectURL(ctx, chatID, text); err != nil {
			b.sendText(chatID, "That does not look like a link. Send /setad to try again.")
			return
		}
		b.sendText(chatID, "Ad link saved.")

	case pendingChannelName:
		if text == "" {
			b.sendText(chatID, "Channel name cannot be empty. Try again:")
			return
		}
		b.pending.Set(chatID, pendingState{action: pendingChannelURL, channelName: text})
		b.sendText(chatID, "Channel link?")

	case pendingChannelURL:
		b.pending.Clear(chatID)
		if err := b.settings.AddChannel(ctx, chatID, state.channelName, text); err != nil {
			b.log.Error("add channel", "err", err)
			b.sendText(chatID, "Could not save the channel, try again later.")
			return
		}
		b.sendText(chatID, "Channel added. It will appear on every new post.")

	case pendingRedeemCode:
		b.pending.Clear(chatID)
		b.redeemCode(ctx, chatID, text)

	case pendingGrant:
		userID, days, err := parsePipePair(text)
		if err != nil {
			b.sendText(chatID, "Format: user_id | days. Try again:")
			return
		}
		b.pending.Clear(chatID)
		until, err := b.entitlements.Grant(ctx, userID, int(days))
		if err != nil {
			b.log.Error("grant premium", "err", err)
			b.sendText(chatID, "Could not grant premium, try again later.")
			return
		}
		b.sendText(chatID, fmt.Sprintf("Premium granted to %d until %s.", userID, until.Format("2006-01-02")))

	case pendingRevoke:
		userID, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.sendText(chatID, "Numbers only. Send the user_id to revoke:")
			return
		}
		b.pending.Clear(chatID)
		if err := b.entitlements.Revoke(ctx, userID); err != nil {
			b.log.Error("revoke premium", "err", err)
			b.sendText(chatID, "Could not revoke premium, try again later.")
			return
		}
		b.sendText(chatID, fmt.Sprintf("Premium revoked for %d.", userID))

	case pendingGenerateCodes:
		count, days, err := parsePipePair(text)
		if err != nil {
			// A bare count uses the configured default duration.
			count, err = strconv.ParseInt(text, 10, 64)
			days = int64(b.cfg.CodeDefaultDays)
		}
		if err != nil || count < 1 || days < 1 {
			b.sendText(chatID, "Format: count | days (e.g. 5 | 7). Try again:")
			return
		}
		b.pending.Clear(chatID)
		tokens, err := b.entitlements.GenerateCodes(ctx, int(count), int(days))
		if err != nil {
			b.log.Error("generate codes", "err", err)
			b.sendText(chatID, "Could not generate codes, try again later.")
			return
		}
		b.sendText(chatID, fmt.Sprintf("%d codes, %d days each:\n\n%s", len(tokens), days, strings.Join(tokens, "\n")))
	}
}

func (b *Bot) redeemCode(ctx context.Context, chatID int64, code string) {
	if b.entitlements.IsOwner(chatID) {
		b.sendText(chatID, "The owner account already has full access.")
		return
	}
	until, err := b.entitlements.Redeem(ctx, chatID, code)
	if err != nil {
		if errors.Is(err, service.ErrCodeInvalid) {
			b.sendText(chatID, "This code is invalid or already used.")
			return
		}
		b.log.Error("redeem code", "err", err)
		b.sendText(chatID, "Could not redeem the code, try again later.")
		return
	}
	b.sendText(chatID, fmt.Sprintf("Code accepted! Premium active until %s.", until.Format("2006-01-02")))
}

func (b *Bot) handlePosterPhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.storage == nil {
		b.sendText(chatID, "Photo uploads are not configured. Send the poster as a URL instead.")
		return
	}
	photo := msg.Photo[len(msg.Photo)-1]
	data, contentType, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.Error("download poster", "err", err)
		b.sendText(chatID, "Could not read the photo. Send the poster as a URL instead.")
		return
	}
	url, err := b.storage.Upload(ctx, data, contentType)
	if err != nil {
		b.log.Error("upload poster", "err", err)
		b.sendText(chatID, "Could not store the photo. Send the poster as a URL instead.")
		return
	}
	b.handleFlowInput(ctx, chatID, url)
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}
	if file.FilePath == "" {
		return nil, "", fmt.Errorf("file path empty")
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", b.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("telegram file status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file body: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" && len(body) > 0 {
		contentType = http.DetectContentType(body)
	}
	return body, contentType, nil
}

func (b *Bot) sendMainMenu(chatID int64) {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("🎬 Create movie post", cbCreatePost)},
		{
			tgbotapi.NewInlineKeyboardButtonData("📢 My channels", cbMyChannels),
			tgbotapi.NewInlineKeyboardButtonData("🔗 Ad link", cbSetAdLink),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🔢 Click limit", cbSetClicks),
			tgbotapi.NewInlineKeyboardButtonData("💎 Premium plans", cbPlans),
		},
		{tgbotapi.NewInlineKeyboardButtonData("🎟 Redeem a code", cbRedeem)},
	}
	if b.entitlements.IsOwner(chatID) {
		rows = append(rows,
			[]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("🎫 Generate codes", cbGenerateCodes),
				tgbotapi.NewInlineKeyboardButtonData("📊 Stats", cbStats),
			},
			[]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("➕ Grant premium", cbGrant),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Revoke premium", cbRevoke),
			},
		)
	}
	msg := tgbotapi.NewMessage(chatID, "🛠 Main menu")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send menu", "err", err)
	}
}

func (b *Bot) sendConfirmKeyboard(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add another quality", cbFlowAddMore),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Finalize post", cbFlowFinalize),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "Link saved. Add another quality or finalize the post?")
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send confirm keyboard", "err", err)
	}
}

func (b *Bot) sendPrompt(chatID int64, prompt flow.Prompt) {
	switch prompt {
	case flow.PromptName:
		b.sendText(chatID, "🎬 Movie title?")
	case flow.PromptPoster:
		if b.storage != nil {
			b.sendText(chatID, "🖼 Poster? Send a URL or upload a photo.")
		} else {
			b.sendText(chatID, "🖼 Poster URL?")
		}
	case flow.PromptYear:
		b.sendText(chatID, "📅 Release year?")
	case flow.PromptLanguage:
		b.sendText(chatID, "🌐 Language?")
	case flow.PromptQuality:
		b.sendText(chatID, "💿 Quality label? (e.g. 720p)")
	case flow.PromptLink:
		b.sendText(chatID, "🔗 Download link for this quality?")
	case flow.PromptConfirm:
		b.sendConfirmKeyboard(chatID)
	}
}

func (b *Bot) sendPlans(ctx context.Context, chatID int64) {
	offers, err := b.offers.List(ctx)
	if err != nil {
		b.log.Error("list offers", "err", err)
		b.sendText(chatID, "Could not load the plans, try again later.")
		return
	}
	if len(offers) == 0 {
		b.sendText(chatID, "No plans are on sale right now. Ask the operator for a code and redeem it with /redeem.")
		return
	}
	var sb strings.Builder
	sb.WriteString("💎 Premium plans:\n\n")
	for _, offer := range offers {
		fmt.Fprintf(&sb, "• %s — %s, %d days\n", offer.Title, offer.Price, offer.DurationDays)
	}
	sb.WriteString("\nAfter payment you receive a code. Activate it with /redeem.")
	b.sendText(chatID, sb.String())
}

func (b *Bot) sendChannelList(ctx context.Context, chatID int64) {
	channels, err := b.settings.ListChannels(ctx, chatID)
	if err != nil {
		b.log.Error("list channels", "err", err)
		b.sendText(chatID, "Could not load your channels, try again later.")
		return
	}
	if len(channels) == 0 {
		b.sendText(chatID, "No channels yet. Add one with /addchannel.")
		return
	}
	var sb strings.Builder
	sb.WriteString("📢 Your channels:\n\n")
	for _, ch := range channels {
		fmt.Fprintf(&sb, "%d. %s — %s\n", ch.ID, ch.Name, ch.URL)
	}
	sb.WriteString("\nAdd with /addchannel, remove with /delchannel <id>.")
	b.sendText(chatID, sb.String())
}

func (b *Bot) sendStats(ctx context.Context, chatID int64) {
	premium, codes, err := b.entitlements.Stats(ctx)
	if err != nil {
		b.log.Error("stats", "err", err)
		b.sendText(chatID, "Could not load the stats, try again later.")
		return
	}
	b.sendText(chatID, fmt.Sprintf("📊 Premium members: %d\n🎫 Unredeemed codes: %d", premium, codes))
}

func (b *Bot) requireEntitled(ctx context.Context, chatID int64, action func()) {
	ok, err := b.entitlements.Check(ctx, chatID)
	if err != nil {
		b.log.Error("entitlement check", "err", err)
		b.sendText(chatID, "Something went wrong, try again later.")
		return
	}
	if !ok {
		b.sendText(chatID, "This feature is for premium members only. See /plans or redeem a code with /redeem.")
		return
	}
	action()
}

func (b *Bot) requireOwner(chatID int64, action func()) {
	if !b.entitlements.IsOwner(chatID) {
		b.sendText(chatID, "This command is for the bot owner.")
		return
	}
	action()
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send text", "err", err)
	}
}

// parsePipePair parses "a | b" inputs like "12345 | 30".
func parsePipePair(text string) (int64, int64, error) {
	parts := strings.Split(text, "|")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two values separated by |")
	}
	first, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse first value: %w", err)
	}
	second, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse second value: %w", err)
	}
	return first, second, nil
}
