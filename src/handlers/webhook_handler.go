package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/username/investbot/src/calculator"
	"github.com/username/investbot/src/logger"
	"github.com/username/investbot/src/models"
	"github.com/username/investbot/src/telegram"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// The platform only needs delivery confirmation; pipeline outcomes are
// reported to the user through the chat reply, never the HTTP status.
const webhookAck = "ok"

const invalidTokenReply = "Token is invalid!"

// BotSender is the outbound chat surface the handler needs.
type BotSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// CalculatorFactory builds a fresh calculator session for a user-supplied
// brokerage access token.
type CalculatorFactory func(token string) *calculator.Calculator

type WebhookHandler struct {
	bot           BotSender
	newCalculator CalculatorFactory
}

func NewWebhookHandler(bot BotSender, newCalculator CalculatorFactory) *WebhookHandler {
	return &WebhookHandler{
		bot:           bot,
		newCalculator: newCalculator,
	}
}

// HandleWebhook processes one chat-platform update end to end: parse the
// command and access token, run the aggregation pipeline, reply with the
// result. Every pipeline failure is converted into a single fixed reply; the
// platform always receives the acknowledgement body.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	defer h.ack(w)

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		logger.L.Warn("Failed to decode webhook update", "error", err)
		return
	}
	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		logger.L.Debug("Ignoring update without message text", "updateID", update.UpdateID)
		return
	}

	chatID := update.Message.Chat.ID
	command, token := parseCommand(update.Message.Text)
	if token == "" {
		h.reply(r.Context(), chatID, invalidTokenReply)
		return
	}

	message, err := h.buildReply(r.Context(), command, token)
	if err != nil {
		logger.L.Warn("Pipeline failed, replying with fixed message",
			"command", command, "chatID", chatID, "error", err)
		message = invalidTokenReply
	}
	h.reply(r.Context(), chatID, message)
}

func (h *WebhookHandler) buildReply(ctx context.Context, command, token string) (string, error) {
	calc := h.newCalculator(token)

	switch command {
	case "/p":
		entries, err := calc.PortfolioInfo(ctx)
		if err != nil {
			return "", err
		}
		return renderPortfolio(entries), nil
	default:
		return calc.StatisticsText(ctx)
	}
}

// parseCommand splits a message into its command and access token. A bare
// token with no command is treated as a statistics request.
func parseCommand(text string) (command, token string) {
	fields := strings.Fields(strings.TrimSpace(text))
	switch {
	case len(fields) == 2 && (fields[0] == "/s" || fields[0] == "/p"):
		return fields[0], fields[1]
	case len(fields) == 1 && !strings.HasPrefix(fields[0], "/"):
		return "/s", fields[0]
	default:
		return "", ""
	}
}

// renderPortfolio renders positions as a semicolon-separated header line
// followed by one line per position.
func renderPortfolio(entries []models.PortfolioEntry) string {
	if len(entries) == 0 {
		return ""
	}

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "ticker;name;currency;current_total;lots;avg_price")
	for _, entry := range entries {
		lines = append(lines, strings.Join([]string{
			entry.Ticker,
			entry.Name,
			string(entry.Currency),
			formatFloat(entry.CurrentTotal),
			formatFloat(entry.Lots),
			formatFloat(entry.AvgPrice),
		}, ";"))
	}
	return strings.Join(lines, "\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (h *WebhookHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.bot.SendMessage(ctx, chatID, text); err != nil {
		logger.L.Error("Failed to send chat reply", "chatID", chatID, "error", err)
	}
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(webhookAck)); err != nil {
		logger.L.Error("Failed to write webhook acknowledgement", "error", err)
	}
}
