package update

import (
	"context"
	"strings"
	"time"

	"github.com/sandeepkv93/hydrate/internal/notify"
	"github.com/sandeepkv93/hydrate/internal/views"
)

const desktopSendTimeout = 3 * time.Second

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

// notify records an in-app notification. Reminder and goal notifications
// are also pushed to the desktop notifier.
func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now().UTC(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > maxNotifications {
		m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
	}
	if level != "reminder" && level != "goal" {
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, desktopSendTimeout)
	defer cancel()
	if err := m.notifier.Send(ctx, notify.Notification{Title: title, Body: body}); err != nil {
		m.log.Warn("desktop notification failed", "error", err)
	}
}
