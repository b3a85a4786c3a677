package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger, send: smtp.SendMail}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, jobID, videoKey, errorMsg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	msg := failureMessage(n.from, userEmail, jobID, videoKey, errorMsg)

	if err := n.send(addr, nil, n.from, []string{userEmail}, []byte(msg)); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", jobID),
	)
	return nil
}

func failureMessage(from, to, jobID, videoKey, errorMsg string) string {
	subject := fmt.Sprintf("FIAP X - Screen Recording Analysis Failed [Job %s]", jobID)

	var body strings.Builder
	body.WriteString("Hello,\r\n\r\n")
	body.WriteString("We could not build the interaction timeline for your screen recording.\r\n\r\n")
	fmt.Fprintf(&body, "Job ID: %s\r\n", jobID)
	fmt.Fprintf(&body, "Recording: %s\r\n", videoKey)
	fmt.Fprintf(&body, "Error: %s\r\n\r\n", errorMsg)
	body.WriteString("Check that the file is a playable video and upload it again, or contact support.\r\n\r\n")
	body.WriteString("-- FIAP X Analysis Service")

	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body.String())
}
