package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/retry"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// botSender is the subset of tgbotapi.BotAPI used for delivery
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends alerts to a Telegram chat
type TelegramNotifier struct {
	bot    botSender
	chatID int64
	policy *retry.Policy
	logger *logrus.Logger
}

// NewTelegramNotifier connects to the Bot API and validates the chat ID
func NewTelegramNotifier(botToken, chatID string, policy *retry.Policy, logger *logrus.Logger) (*TelegramNotifier, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return newTelegramNotifier(bot, chatIDInt, policy, logger), nil
}

func newTelegramNotifier(bot botSender, chatID int64, policy *retry.Policy, logger *logrus.Logger) *TelegramNotifier {
	if policy == nil {
		policy = retry.NewPolicy(3, time.Second)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		policy: policy,
		logger: logger,
	}
}

// Name implements Notifier
func (t *TelegramNotifier) Name() string { return models.ChannelTelegram }

// Send delivers an opportunity as a MarkdownV2 message
func (t *TelegramNotifier) Send(ctx context.Context, opp models.Opportunity) error {
	msg := tgbotapi.NewMessage(t.chatID, formatTelegramMessage(opp))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	err := t.policy.Do(ctx, func(ctx context.Context) error {
		_, err := t.bot.Send(msg)
		return err
	})
	if err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}

	t.logger.WithField("opportunity_id", opp.ID).Info("telegram alert sent")
	return nil
}

func formatTelegramMessage(opp models.Opportunity) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s *%s*\n", tierEmoji(opp.RiskTier), escapeMarkdownV2(Title(opp))))
	sb.WriteString(fmt.Sprintf("_%s_\n\n", escapeMarkdownV2(opp.RiskTier.Label())))

	for i, leg := range opp.Legs {
		line := fmt.Sprintf("%d. %s @ %.2f", i+1, leg.BookmakerName, leg.DecimalOdds)
		if i < len(opp.Stakes) && opp.Stakes[i] > 0 {
			line += fmt.Sprintf(", stake %.2f", opp.Stakes[i])
		}
		sb.WriteString(escapeMarkdownV2(line))
		sb.WriteString("\n")
	}

	detected := escapeMarkdownV2(opp.DetectedAt.UTC().Format("2006-01-02 15:04:05"))
	sb.WriteString(fmt.Sprintf("\n📅 %s UTC", detected))
	return sb.String()
}

var markdownV2Replacer = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// escapeMarkdownV2 escapes the characters reserved by Telegram MarkdownV2
func escapeMarkdownV2(s string) string {
	return markdownV2Replacer.Replace(s)
}
