package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// WelcomeMessage carries the credentials sent to a freshly provisioned
// organization's admin.
type WelcomeMessage struct {
	OrgName        string
	OrgCode        string
	AdminEmail     string
	TempCredential string
}

// Notifier is the boundary to the notification collaborator (email, SMS,
// whatever operations wires up). A send failure never rolls back
// provisioning; the provisioner logs it and moves on.
type Notifier interface {
	SendWelcome(ctx context.Context, msg WelcomeMessage) error
}

// LogNotifier writes notifications to the log instead of delivering them.
// Used in development and as the default when no delivery backend is
// configured. The temporary credential is deliberately not logged.
type LogNotifier struct{}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, msg WelcomeMessage) error {
	log.Info().
		Str("org_code", msg.OrgCode).
		Str("org_name", msg.OrgName).
		Str("admin_email", msg.AdminEmail).
		Msg("Welcome notification (log-only delivery)")
	return nil
}
