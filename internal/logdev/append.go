package logdev

import (
	"context"
	"fmt"
)

// AppendAsync assigns the next LogIdx to payload for storeID and admits it
// into the current flush round, returning immediately. Durability is
// signalled later through the AppendCompletionFunc registered with
// SetAppendCompletionCB.
func (ld *LogDev) AppendAsync(storeID uint32, seqNum uint64, payload []byte, appCtx any) (LogIdx, error) {
	return ld.appendAsync(context.Background(), storeID, seqNum, payload, appCtx)
}

// AppendAsyncCtx is AppendAsync with an explicit context, letting a caller
// already running on the injected reactor flush inline instead of hopping
// through Schedule.
func (ld *LogDev) AppendAsyncCtx(ctx context.Context, storeID uint32, seqNum uint64, payload []byte, appCtx any) (LogIdx, error) {
	return ld.appendAsync(ctx, storeID, seqNum, payload, appCtx)
}

func (ld *LogDev) appendAsync(ctx context.Context, storeID uint32, seqNum uint64, payload []byte, appCtx any) (LogIdx, error) {
	if !ld.isStarted() {
		return 0, fmt.Errorf("logdev: append called before Start")
	}
	if !ld.sb.ids.isReserved(storeID) {
		return 0, fmt.Errorf("logdev: store %d is not reserved", storeID)
	}

	idx := LogIdx(ld.nextIdx.Add(1) - 1)
	ld.tracker.create(idx, storeID, seqNum, payload, appCtx)
	ld.flush.recordAdmitted(ctx, uint32(len(payload))+descriptorSize)
	return idx, nil
}
