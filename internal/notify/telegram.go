package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/output"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/httputil"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	telegramAPIBase = "https://api.telegram.org"

	// Telegram messages cap at 4096 characters; five candidates keeps
	// the scan summary well under that.
	maxCandidates = 5
)

// Notifier posts scan summaries to a Telegram chat. It is a no-op
// until both bot token and chat id are configured.
type Notifier struct {
	cfg     config.TelegramConfig
	http    *httputil.Client
	logger  *logger.Logger
	baseURL string
}

func New(cfg config.TelegramConfig, log *logger.Logger) *Notifier {
	return &Notifier{
		cfg:     cfg,
		http:    httputil.New(log),
		logger:  log.WithField("module", "notify"),
		baseURL: telegramAPIBase,
	}
}

// Enabled reports whether credentials are configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.BotToken != "" && n.cfg.ChatID != ""
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify posts a compact summary of a completed scan. Disabled
// notifiers and empty result sets send nothing and return nil.
func (n *Notifier) Notify(ctx context.Context, results []contracts.ScanResult) error {
	if !n.Enabled() {
		n.logger.Debug("Telegram notifier disabled, skipping")
		return nil
	}
	if len(results) == 0 {
		n.logger.Debug("No candidates to notify about")
		return nil
	}

	if err := n.send(ctx, buildMessage(results)); err != nil {
		return err
	}

	n.logger.WithFields(map[string]interface{}{
		"candidates": len(results),
		"timeframe":  results[0].Timeframe,
	}).Info("Scan notification sent")
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.cfg.BotToken)

	resp, err := n.http.PostJSON(ctx, url, sendMessageRequest{
		ChatID:                n.cfg.ChatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		if result.Description == "" {
			result.Description = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	return nil
}

// buildMessage renders the top candidates as Telegram Markdown. Only
// controlled fields go in, so no escaping is needed.
func buildMessage(results []contracts.ScanResult) string {
	top := results
	if len(top) > maxCandidates {
		top = top[:maxCandidates]
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("🚀 *Flashpoint Scan (%s)*", top[0].Timeframe))
	if len(results) == 1 {
		lines = append(lines, "1 candidate")
	} else {
		lines = append(lines, fmt.Sprintf("%d candidates", len(results)))
	}

	for _, r := range top {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("*#%d %s* score %.0f/100", r.Rank, r.Symbol, r.Score))

		entry := fmt.Sprintf("Entry %s | Stop %s", output.FormatCurrency(r.CurrentPrice), output.FormatCurrency(r.StopLoss))
		if r.TargetStrike != nil {
			entry += fmt.Sprintf(" | Target %s", output.FormatCurrency(*r.TargetStrike))
		}
		lines = append(lines, entry)
		lines = append(lines, fmt.Sprintf("Return %s at %.0f%% probability",
			output.FormatPercentage(r.ExpectedReturn), r.ProbabilityReach*100))
	}

	return strings.Join(lines, "\n")
}
