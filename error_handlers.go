package jobqueue

import (
	lg "github.com/Andrej220/go-utils/zlog"
)

// reportInternalError reports a broken invariant.
//
// Invariant violations mean the mutual exclusion around the buffer no
// longer holds. They are logged and handed to OnInternalError; without a
// handler the manager panics.
func (m *Manager) reportInternalError(err error) {
	lg.FromContext(m.opts.Context).Error("internal invariant violated", lg.Any("error", err))
	if m.OnInternalError != nil {
		m.OnInternalError(err)
		return
	}
	panic(err)
}
