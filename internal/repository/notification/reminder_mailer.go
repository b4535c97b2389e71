package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"myTrendyMart/business/recovery"
	"myTrendyMart/domain"
	"myTrendyMart/pkg/logger"

	"github.com/pobyzaarif/goshortcute"
)

type MailjetConfig struct {
	MailjetBaseURL           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
	StoreURL                 string
}

// ReminderMailer delivers abandonment reminders through Mailjet. It is the
// opaque, possibly-failing channel behind the escalator; any non-2xx
// response is an error and the checkpoint will be retried on a later sweep.
type ReminderMailer struct {
	mailjetConfig MailjetConfig
}

func NewReminderMailer(cfg MailjetConfig) *ReminderMailer {
	return &ReminderMailer{
		cfg,
	}
}

type payloadSendEmail struct {
	Messages []Messages `json:"Messages"`
}

type From struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type To struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type Messages struct {
	From     From   `json:"From"`
	To       []To   `json:"To"`
	Subject  string `json:"Subject"`
	TextPart string `json:"TextPart"`
	HTMLPart string `json:"HTMLPart"`
}

func (r *ReminderMailer) Send(ctx context.Context, stage recovery.ReminderStage, cart domain.CartSnapshot) error {
	if cart.Email == "" {
		return fmt.Errorf("cart %s has no contact email", cart.SessionID)
	}

	subject, body := r.renderReminder(stage, cart)

	toBody := []To{{Email: cart.Email}}

	messageBody := Messages{
		To: toBody,
		From: From{
			Email: r.mailjetConfig.MailjetSenderEmail,
			Name:  r.mailjetConfig.MailjetSenderName,
		},
		Subject:  subject,
		TextPart: body,
		HTMLPart: body,
	}

	payload := payloadSendEmail{
		Messages: []Messages{messageBody},
	}

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal json payload: %w", err)
	}

	url := r.mailjetConfig.MailjetBaseURL + "/v3.1/send"
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payloadByte)))
	if err != nil {
		return err
	}

	buildBasicAuth := goshortcute.StringtoBase64Encode(r.mailjetConfig.MailjetBasicAuthUsername + ":" + r.mailjetConfig.MailjetBasicAuthPassword)
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Basic "+buildBasicAuth)

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}

	bodyBytes, _ := io.ReadAll(res.Body)
	logger.Error("mailjet rejected reminder", "status", res.StatusCode, "body", string(bodyBytes))

	return fmt.Errorf("mailer service return negative response %v", res.StatusCode)
}

// renderReminder builds the storefront copy for each checkpoint. The cart
// link carries the session id so the checkout can flag the visit as an
// abandoned-cart return.
func (r *ReminderMailer) renderReminder(stage recovery.ReminderStage, cart domain.CartSnapshot) (subject, body string) {
	link := fmt.Sprintf("%s/cart?session=%s&from=reminder", r.mailjetConfig.StoreURL, cart.SessionID)

	var items strings.Builder
	for _, it := range cart.Items {
		fmt.Fprintf(&items, "- %s x%d (৳%.2f)\n", it.Name, it.Quantity, it.UnitPrice)
	}

	switch stage {
	case recovery.StageFirst:
		subject = "You left something in your cart"
		body = fmt.Sprintf(
			"Your cart is waiting for you:\n\n%s\nTotal: ৳%.2f\n\nPick up where you left off: %s\n",
			items.String(), cart.CartTotal, link,
		)
	case recovery.StageSecond:
		subject = "Still thinking it over?"
		body = fmt.Sprintf(
			"The items in your cart are still available:\n\n%s\nTotal: ৳%.2f\n\nComplete your order here: %s\n",
			items.String(), cart.CartTotal, link,
		)
	case recovery.StageFinal:
		subject = "Last chance to complete your order"
		body = fmt.Sprintf(
			"We can't hold your cart much longer:\n\n%s\nTotal: ৳%.2f\n\nFinish checking out: %s\n",
			items.String(), cart.CartTotal, link,
		)
	default:
		subject = "Your cart at MyTrendyMart"
		body = fmt.Sprintf("Your cart total is ৳%.2f. Continue shopping: %s\n", cart.CartTotal, link)
	}

	return subject, body
}
