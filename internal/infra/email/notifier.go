package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"go.uber.org/zap"
)

// SMTPNotifier mails the run summary to an operator after a batch
// completes, including the failed records so they can be re-run.
type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifySummary(_ context.Context, to, runID string, sum *entity.RunSummary) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("gloss2pose run %s: %d processed, %d skipped, %d failed",
		runID, sum.Processed, sum.Skipped, len(sum.Failed))

	var body strings.Builder
	fmt.Fprintf(&body, "Run %s finished.\r\n\r\n", runID)
	fmt.Fprintf(&body, "Processed: %d\r\nSkipped:   %d\r\nFailed:    %d\r\n", sum.Processed, sum.Skipped, len(sum.Failed))
	if len(sum.Failed) > 0 {
		body.WriteString("\r\nFailed records:\r\n")
		for _, f := range sum.Failed {
			fmt.Fprintf(&body, "  %s %q [%.2f, %.2f): %v\r\n",
				f.Record.VideoID, f.Record.Word, f.Record.StartTime, f.Record.EndTime, f.Err)
		}
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, to, subject, body.String())

	if err := smtp.SendMail(addr, nil, n.from, []string{to}, []byte(msg)); err != nil {
		n.logger.Error("failed to send summary email",
			zap.String("to", to),
			zap.String("run_id", runID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("summary email sent",
		zap.String("to", to),
		zap.String("run_id", runID),
	)
	return nil
}
