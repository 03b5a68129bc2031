package services

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier delivers outbound messages to a sender. Satisfied by
// TwilioService; handlers depend on the interface so tests can stub it.
type Notifier interface {
	SendWhatsAppMessage(to, message string) error
}

// TwilioService sends outbound WhatsApp messages. Inbound webhooks are
// answered synchronously with TwiML; this client covers proactive sends and
// replies to the JSON test endpoint.
type TwilioService struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

// NewTwilioService reads credentials from the environment.
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &TwilioService{client: client, from: from}, nil
}

// SendWhatsAppMessage delivers one message to the given phone number.
func (t *TwilioService) SendWhatsAppMessage(to, message string) error {
	if !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}
	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}
