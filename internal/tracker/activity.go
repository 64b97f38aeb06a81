package tracker

import (
	"context"

	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/models"
)

// HandleActivity records a user activity signal and stops the session when
// the user has been inactive longer than the configured timeout.
func (st *SessionTracker) HandleActivity(ctx context.Context, active bool, url string) error {
	if st.session == nil {
		return nil
	}

	now := st.now()
	action := models.ActionUserInactive
	if active {
		action = models.ActionUserActive
		st.ptr.lastActive = &now
	}
	st.record(action, url, now)

	return st.checkAutoStop(ctx, now)
}

func (st *SessionTracker) checkAutoStop(ctx context.Context, now int64) error {
	if st.session == nil || st.ptr.lastActive == nil || !st.settings.AutoStop {
		return nil
	}

	idle := now - *st.ptr.lastActive
	if idle <= st.settings.InactivityTimeoutMillis() {
		return nil
	}

	st.logger.Info("Auto-stopping session due to inactivity",
		zap.String("session_id", st.session.ID),
		zap.Int64("idle_ms", idle),
	)
	return st.Stop(ctx)
}
