package cartcount

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	resultOK      = "ok"
	resultError   = "error"
	resultSkipped = "skipped"
)

type cartLister interface {
	ListCartLines(ctx context.Context, token string, userID int64) ([]backend.CartLine, error)
}

type refreshRecorder interface {
	IncCartRefresh(result string)
}

// Holder keeps the per-user sum of cart quantities. The value is a derived
// display cache. Each fetch is stamped when it starts; a result only lands if
// no later-started fetch has landed already.
type Holder struct {
	lister  cartLister
	logg    *logger.Logger
	metrics refreshRecorder

	mu      sync.RWMutex
	counts  map[int64]int
	issued  map[int64]uint64
	applied map[int64]uint64
	group   singleflight.Group
}

// NewHolder builds a holder backed by the cart resource client.
func NewHolder(lister cartLister, logg *logger.Logger, metrics refreshRecorder) (*Holder, error) {
	if lister == nil {
		return nil, fmt.Errorf("cart lister required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Holder{
		lister:  lister,
		logg:    logg,
		metrics: metrics,
		counts:  make(map[int64]int),
		issued:  make(map[int64]uint64),
		applied: make(map[int64]uint64),
	}, nil
}

// Count returns the last computed sum for the user, 0 if never computed.
func (h *Holder) Count(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[userID]
}

// Refresh refetches the signed-in user's cart after a cart change. It never
// joins a fetch already in flight, so the result reflects the change. Without
// a session it is a no-op. Fetch failures are logged and keep the previous
// value. The returned value is the count after the refresh.
func (h *Holder) Refresh(ctx context.Context, sess *session.Session) int {
	if sess == nil || sess.UserID <= 0 {
		h.record(resultSkipped)
		return 0
	}
	h.fetch(context.WithoutCancel(ctx), sess)
	return h.Count(sess.UserID)
}

// Sync recomputes the count for a read. Concurrent syncs for one user share
// a single backend fetch.
func (h *Holder) Sync(ctx context.Context, sess *session.Session) int {
	if sess == nil || sess.UserID <= 0 {
		h.record(resultSkipped)
		return 0
	}
	detached := context.WithoutCancel(ctx)
	_, _, _ = h.group.Do(strconv.FormatInt(sess.UserID, 10), func() (any, error) {
		h.fetch(detached, sess)
		return nil, nil
	})
	return h.Count(sess.UserID)
}

// Forget drops the cached count, used on sign-out. Fetches still in flight
// for the user are discarded when they finish.
func (h *Holder) Forget(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.counts, userID)
	h.applied[userID] = h.issued[userID]
}

func (h *Holder) fetch(ctx context.Context, sess *session.Session) {
	userID := sess.UserID
	h.mu.Lock()
	h.issued[userID]++
	stamp := h.issued[userID]
	h.mu.Unlock()

	lines, err := h.lister.ListCartLines(ctx, sess.BackendToken, userID)
	if err != nil {
		h.record(resultError)
		h.logg.WarnErr(h.logg.WithUserID(ctx, strconv.FormatInt(userID, 10)), "cartcount.refresh_failed", err)
		return
	}
	total := sumQuantities(lines)

	h.mu.Lock()
	if stamp > h.applied[userID] {
		h.counts[userID] = total
		h.applied[userID] = stamp
	}
	h.mu.Unlock()
	h.record(resultOK)
}

func (h *Holder) record(result string) {
	if h.metrics != nil {
		h.metrics.IncCartRefresh(result)
	}
}

func sumQuantities(lines []backend.CartLine) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}
