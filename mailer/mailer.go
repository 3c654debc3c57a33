package mailer

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/models"
	templates "github.com/luminachat/chat-widget-api/templates/html"
)

const joinLinkTTL = time.Hour

// HandoffMailer emails the chatbot owner when a session flips to live mode.
// The email carries a join link with a short-lived token scoped to the chat
// room, validated by the agent join endpoint.
type HandoffMailer struct {
	BaseURL string
}

// New returns a mailer building join links against baseURL.
func New(baseURL string) *HandoffMailer {
	return &HandoffMailer{BaseURL: baseURL}
}

// NotifyHandoff sends the handoff email. A chatbot without an owner email is
// a no-op.
func (m *HandoffMailer) NotifyHandoff(_ context.Context, bot *models.ChatBot, sessionID, room string) error {
	if bot == nil || bot.Details.OwnerEmail == "" {
		zap.S().Debugw("no owner email on chatbot, skipping handoff notification", "session", sessionID)
		return nil
	}

	token, err := m.joinToken(sessionID, room)
	if err != nil {
		return err
	}
	joinURL := fmt.Sprintf("%s/api/v1/agent/rooms/%s/join?token=%s", m.BaseURL, url.PathEscape(room), url.QueryEscape(token))

	from := mail.NewEmail("Chat Widget", os.Getenv("SENDGRID_FROM_EMAIL"))
	to := mail.NewEmail(bot.Name, bot.Details.OwnerEmail)
	subject := fmt.Sprintf("A visitor chatting with %s asked for a human", bot.Name)
	plain := fmt.Sprintf("A visitor was handed off to live mode and is waiting for an agent.\nJoin the conversation: %s\nThe link expires in one hour.", joinURL)
	html := templates.RenderHandoffEmail(bot.Name, joinURL)

	message := mail.NewSingleEmail(from, subject, to, plain, html)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", bot.Details.OwnerEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("handoff notification sent", "session", sessionID, "room", room)
	return nil
}

func (m *HandoffMailer) joinToken(sessionID, room string) (string, error) {
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("jwt secret is not set")
	}

	claims := jwt.MapClaims{
		"room":    room,
		"session": sessionID,
		"exp":     time.Now().Add(joinLinkTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
