package templates

import (
	"fmt"
	"html"
)

// RenderHandoffEmail generates the HTML body for the email sent to a chatbot
// owner when a widget visitor is handed off to a live agent. joinURL carries
// a short-lived token scoping the agent to the chat room.
func RenderHandoffEmail(botName, joinURL string) string {
	safeBot := html.EscapeString(botName)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>A visitor asked for a human</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f4f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #374151; line-height: 1.6; font-size: 15px; }
    .button { display: inline-block; padding: 14px 28px; background: #667eea; color: #fff; border-radius: 6px; text-decoration: none; font-weight: 600; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>A visitor asked for a human</h1>
    </div>
    <div class="content">
      <p>A visitor chatting with <strong>%s</strong> was just handed off to live mode and is waiting for an agent.</p>
      <p style="text-align:center;margin:32px 0;"><a class="button" href="%s">Join the conversation</a></p>
      <p>The join link expires in one hour. If nobody joins, the visitor keeps seeing the waiting state in the widget.</p>
    </div>
    <div class="footer">
      <p>You received this because live handoff notifications are enabled for this chatbot.</p>
    </div>
  </div>
</body>
</html>`, safeBot, joinURL)
}
