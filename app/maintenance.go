package app

import (
	"sort"

	"github.com/drake/relay/jobs"
)

// Dedupe keys for the maintenance fetch batches. One outstanding call per
// class at a time; duplicates coalesce at the producer.
const (
	fetchUsersKey    = "maintenance:users"
	fetchStatusesKey = "maintenance:statuses"
)

// maintain is the fixed post-event pass: batch outstanding user-detail
// fetches, then outstanding status fetches. Idempotent and cheap when
// nothing is pending.
func (a *App) maintain() {
	a.reconcileUsers()
	a.reconcileStatuses()
}

func (a *App) reconcileUsers() {
	if len(a.st.PendingUsers) == 0 {
		return
	}
	ids := sortedKeys(a.st.PendingUsers)

	a.queue.EnqueueDedupe(fetchUsersKey, jobs.Normal, func() func() {
		users, err := a.server.UsersByIDs(a.ctx, ids)
		if err != nil {
			return a.serverErrCont(err)
		}
		return func() {
			for _, u := range users {
				a.st.Users.Add(u.ID, u)
			}
			// Clear everything we asked for, even IDs the server did not
			// return, so a bad ID cannot wedge the pass into a loop.
			for _, id := range ids {
				delete(a.st.PendingUsers, id)
			}
		}
	})
}

func (a *App) reconcileStatuses() {
	if len(a.st.PendingStatuses) == 0 {
		return
	}
	ids := sortedKeys(a.st.PendingStatuses)

	a.queue.EnqueueDedupe(fetchStatusesKey, jobs.Normal, func() func() {
		statuses, err := a.server.StatusesByIDs(a.ctx, ids)
		if err != nil {
			return a.serverErrCont(err)
		}
		return func() {
			for id, status := range statuses {
				a.st.Statuses[id] = status
			}
			for _, id := range ids {
				delete(a.st.PendingStatuses, id)
			}
		}
	})
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
