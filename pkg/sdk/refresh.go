package sdk

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// RefreshResult reports what a refresh attempt did.
type RefreshResult string

const (
	RefreshSkippedLoggedOut RefreshResult = "logged_out"
	RefreshSkippedFresh     RefreshResult = "fresh"
	RefreshCommitted        RefreshResult = "committed"
	RefreshDiscarded        RefreshResult = "discarded"
	RefreshFailed           RefreshResult = "failed"
)

// RefreshSchedule is a running refresh loop. Stop cancels it and waits for
// the loop to exit.
type RefreshSchedule struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the schedule and waits for the loop to exit. It must not be
// called from within a refresh; use Logout there.
func (s *RefreshSchedule) Stop() {
	s.cancelLoop()
	<-s.done
}

func (s *RefreshSchedule) cancelLoop() {
	s.once.Do(s.cancel)
}

// Done is closed once the loop has exited.
func (s *RefreshSchedule) Done() <-chan struct{} {
	return s.done
}

// ScheduleRefreshToken starts a loop that refreshes once immediately and
// then on every interval until ctx is done, Logout, Close, or another
// schedule replaces it.
func (a *Actions) ScheduleRefreshToken(ctx context.Context) *RefreshSchedule {
	a.StopRefresh()

	ctx, cancel := context.WithCancel(ctx)
	sched := &RefreshSchedule{cancel: cancel, done: make(chan struct{})}

	a.mu.Lock()
	a.schedule = sched
	a.mu.Unlock()

	go func() {
		defer close(sched.done)
		a.RefreshToken(ctx)
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.RefreshToken(ctx)
			}
		}
	}()
	return sched
}

// StopRefresh cancels the current schedule, if any, and waits for its loop
// to exit.
func (a *Actions) StopRefresh() {
	if sched := a.detachSchedule(); sched != nil {
		sched.Stop()
	}
}

// cancelRefresh cancels the current schedule without waiting. It is safe
// from within the refresh loop, e.g. when a 401 on refresh navigates to
// logout.
func (a *Actions) cancelRefresh() {
	if sched := a.detachSchedule(); sched != nil {
		sched.cancelLoop()
	}
}

func (a *Actions) detachSchedule() *RefreshSchedule {
	a.mu.Lock()
	defer a.mu.Unlock()
	sched := a.schedule
	a.schedule = nil
	return sched
}

// RefreshToken exchanges the session token for a new one when it expires
// within RefreshThreshold. Failures are logged only; a later attempt or a
// 401 from a real request will end the session.
func (a *Actions) RefreshToken(ctx context.Context) RefreshResult {
	result := a.refreshToken(ctx)
	a.metrics.refresh(string(result))
	return result
}

func (a *Actions) refreshToken(ctx context.Context) RefreshResult {
	if !a.session.IsLoggedIn() {
		return RefreshSkippedLoggedOut
	}

	current, generation := a.session.snapshotWithGeneration()
	remaining := time.Unix(current.TokenExpirationTime, 0).Sub(a.tokens.Now())
	if remaining > RefreshThreshold {
		return RefreshSkippedFresh
	}

	var resp LoginResponse
	if err := a.gateway.Do(ctx, Call{Method: http.MethodPost, Path: "/users/refresh"}, &resp); err != nil {
		a.log.Error("error refreshing token", a.log.Args("username", current.Username, "error", err))
		return RefreshFailed
	}

	claims := a.tokens.Decode(resp.Token)
	if claims == nil {
		a.log.Error("refresh returned a malformed token", a.log.Args("username", current.Username))
		return RefreshFailed
	}

	if !a.session.commitRefresh(generation, resp.Token, claims.Expiration()) {
		a.log.Debug("discarding refreshed token for a terminated session", a.log.Args("username", current.Username))
		return RefreshDiscarded
	}
	a.log.Debug("refreshed token", a.log.Args("username", current.Username, "expires", claims.Expiration()))
	return RefreshCommitted
}
