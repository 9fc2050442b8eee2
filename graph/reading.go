package graph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StartReading starts a reading session for cid, replacing any open one.
func (e *Engine) StartReading(cid string) error {
	if cid == "" {
		return fmt.Errorf("%w: missing cell id", ErrInvalidInput)
	}
	e.readingMu.Lock()
	e.reading[cid] = e.now()
	e.readingMu.Unlock()
	return nil
}

// EndReading closes the reading session for cid and adds its length in
// whole seconds to statistics.viewTime. The session is closed even if the
// write fails.
func (e *Engine) EndReading(ctx context.Context, cid string) (time.Duration, error) {
	e.readingMu.Lock()
	start, ok := e.reading[cid]
	delete(e.reading, cid)
	e.readingMu.Unlock()
	if !ok {
		return 0, ErrNotReading
	}

	elapsed := e.now().Sub(start)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	seconds := int64(elapsed / time.Second)

	cols, err := e.Collections()
	if err != nil {
		return 0, err
	}
	doc, err := fetch(ctx, cols, cid)
	if err != nil {
		e.logFailure("end reading", err, zap.String("cid", cid))
		return 0, err
	}

	stats := statisticsOf(doc)
	stats["viewTime"] = floorInt64(stats["viewTime"]) + seconds
	if _, err := cols.Cells.Put(ctx, doc); err != nil {
		err = fmt.Errorf("put cell %s: %w", cid, err)
		e.logger.Error("end reading failed", zap.Error(err))
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}
