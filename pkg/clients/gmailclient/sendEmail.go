package gmailclient

import (
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/api/gmail/v1"
)

const emailInterval = 3 * time.Second

// SendEmail sends an email with the specified subject and body.
// Throttles requests to respect Gmail API rate limits.
func (c *Client) SendEmail(to, subject, body string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if !c.lastSendTime.IsZero() {
		elapsed := time.Since(c.lastSendTime)
		if elapsed < emailInterval {
			time.Sleep(emailInterval - elapsed)
		}
	}

	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", c.sender, to, subject, body)
	encodedMessage := base64.URLEncoding.EncodeToString([]byte(message))

	gmailMessage := &gmail.Message{Raw: encodedMessage}

	_, err := c.service.Users.Messages.Send("me", gmailMessage).Do()
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.lastSendTime = time.Now()
	return nil
}
