package reminder

import "go.uber.org/zap"

// LogNotifier delivers notifications to the structured log. It stands in for
// the desktop notification capability of the browser client.
type LogNotifier struct {
	Logger *zap.SugaredLogger
}

func (n *LogNotifier) Granted() bool { return true }

func (n *LogNotifier) Notify(title, body string) {
	n.Logger.Infow("notification", "title", title, "body", body)
}
