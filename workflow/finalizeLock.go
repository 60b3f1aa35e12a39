package workflow

import (
	"fmt"
	"time"

	"context"

	"bitbucket.org/mmdatafocus/wills_backend/config"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const finalizeLockTTL = 30 * time.Second

// obtainFinalizeLock takes a short per-will redis lock around finalize.
// If redis is down or the lock is held, we proceed anyway and log; the
// conditional status update in MarkCompleted stays the source of truth.
func obtainFinalizeLock(ctx context.Context, willId int) func() {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		logger.WithFields(logrus.Fields{
			"field":   "obtainFinalizeLock",
			"will_id": willId,
		}).Warn("redis lock not ready; proceeding without redis lock")
		return func() {}
	}

	lockKey := fmt.Sprintf("will:finalize:%d", willId)
	lock, err := locker.Obtain(ctx, lockKey, finalizeLockTTL, nil)
	if err == redislock.ErrNotObtained {
		logger.WithFields(logrus.Fields{
			"field":   "obtainFinalizeLock",
			"will_id": willId,
		}).Warn("could not obtain redis lock; proceeding without redis lock")
		return func() {}
	} else if err != nil {
		logger.WithFields(logrus.Fields{
			"field":   "obtainFinalizeLock",
			"will_id": willId,
		}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return func() {}
	}

	return func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			logger.WithFields(logrus.Fields{
				"field":   "obtainFinalizeLock",
				"will_id": willId,
			}).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}
}
