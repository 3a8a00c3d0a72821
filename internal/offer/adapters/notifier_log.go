package adapters

import (
	"context"
	"log/slog"

	"github.com/tomassolanoprieto/subprice/internal/offer"
)

// LogNotifier records qualified offers in the application log. Used when no
// Redis is configured; good enough for local development.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyQualified(ctx context.Context, o offer.Offer) error {
	if n.logger != nil {
		n.logger.InfoContext(ctx, "qualified offer awaiting decision",
			"offer_id", o.ID.String(),
			"anonymous_id", string(o.AnonymousID),
			"sector", o.Sector.String(),
			"expires_at", o.ExpiresAt,
		)
	}
	return nil
}
