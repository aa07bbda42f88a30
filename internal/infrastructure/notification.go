package infrastructure

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
)

// NotificationService sends desktop notifications for finished downloads
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	n := &NotificationService{
		config: config,
		logger: logger,
	}
	n.run = func(name string, args ...string) error {
		n.logger.Debug("Running notifier", zap.String("command", commandLine(name, args...)))
		return exec.Command(name, args...).Run()
	}
	return n
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if n == nil || !n.config.Enabled {
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		if n.config.Sound {
			script += ` sound name "Glass"`
		}
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// NotifyDownloadCompleted sends notification when a download completes
func (n *NotificationService) NotifyDownloadCompleted(platform domain.Platform, filePath string) {
	n.Send("Download Completed", fmt.Sprintf("%s (%s)", truncateString(filepath.Base(filePath), 40), platform))
}

// NotifyDownloadFailed sends notification when a download fails
func (n *NotificationService) NotifyDownloadFailed(url string, platform domain.Platform) {
	n.Send("Download Failed", fmt.Sprintf("Failed: %s (%s)", truncateString(url, 30), platform))
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
