package tracker

import (
	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/site"
)

// commitInterval credits the open interval to its domain. The interval stays
// open; callers close or restart it.
func (st *SessionTracker) commitInterval(now int64) {
	if st.session == nil || st.ptr.url == "" || st.ptr.siteStart == nil {
		return
	}

	domain := site.ExtractDomain(st.ptr.url)
	elapsed := now - *st.ptr.siteStart
	if elapsed < 0 {
		st.logger.Warn("Clock moved backwards, crediting nothing",
			zap.String("domain", domain),
			zap.Int64("elapsed_ms", elapsed),
		)
		elapsed = 0
	}

	stat, ok := st.session.Sites[domain]
	if !ok {
		st.logger.Error("Open interval has no site entry",
			zap.String("domain", domain),
			zap.String("session_id", st.session.ID),
			zap.Int64("dropped_ms", elapsed),
		)
		return
	}
	stat.TotalTime += elapsed
}

// closeInterval commits and leaves nothing open (blur, hidden page, stop).
func (st *SessionTracker) closeInterval(now int64) {
	st.commitInterval(now)
	st.ptr.siteStart = nil
}

// restartInterval commits and reopens at now (flush, focus, visible page).
func (st *SessionTracker) restartInterval(now int64) {
	st.commitInterval(now)
	if st.ptr.url == "" {
		st.ptr.siteStart = nil
		return
	}
	start := now
	st.ptr.siteStart = &start
}
