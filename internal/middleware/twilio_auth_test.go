package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func signedTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhook/whatsapp", ValidateTwilioSignature(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestValidateTwilioSignatureAccepts(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "secret-token")
	app := signedTestApp()

	params := map[string]string{
		"From": "whatsapp:+584141234567",
		"Body": "hola",
	}
	signature := calculateTwilioSignature("secret-token", "http://example.com/webhook/whatsapp", params)

	req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp",
		strings.NewReader("From=whatsapp%3A%2B584141234567&Body=hola"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", signature)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestValidateTwilioSignatureRejectsMissing(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "secret-token")
	app := signedTestApp()

	req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp",
		strings.NewReader("Body=hola"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestValidateTwilioSignatureRejectsTampered(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "secret-token")
	app := signedTestApp()

	signature := calculateTwilioSignature("secret-token", "http://example.com/webhook/whatsapp",
		map[string]string{"Body": "hola"})

	// Body changed after signing.
	req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp",
		strings.NewReader("Body=vaciar+carrito"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", signature)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestValidateTwilioSignatureWithoutToken(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	app := signedTestApp()

	req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp",
		strings.NewReader("Body=hola"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "anything")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}
