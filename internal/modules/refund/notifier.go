package refund

import (
	"context"
	"time"
)

// LogNotifier writes notifications to the log instead of sending them. Used
// until an email or SMS channel is wired in.
type LogNotifier struct {
	loggerf func(format string, args ...interface{})
}

func NewLogNotifier(loggerf func(format string, args ...interface{})) *LogNotifier {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &LogNotifier{loggerf: loggerf}
}

func (n *LogNotifier) NotifyRefundVerificationRequested(ctx context.Context, contact string, requestID int64, token string, expiresAt time.Time) error {
	n.loggerf("level=info msg=refund verification requested request_id=%d contact=%s expires_at=%s", requestID, contact, expiresAt.Format(time.RFC3339))
	return nil
}

func (n *LogNotifier) NotifyRefundRequestExpired(ctx context.Context, contact string, requestID int64) error {
	n.loggerf("level=info msg=refund request expired request_id=%d contact=%s", requestID, contact)
	return nil
}
