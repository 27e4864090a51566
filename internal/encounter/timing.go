package encounter

import "time"

// Offsets are measured from the throw.
const (
	ThrowFxClear = 980 * time.Millisecond
	BreakSfx     = 780 * time.Millisecond

	FirstShake  = 820 * time.Millisecond
	SecondShake = 1040 * time.Millisecond
	ThirdShake  = 1260 * time.Millisecond

	CaptureCommit         = 1480 * time.Millisecond
	NextAfterCapture      = 1780 * time.Millisecond
	NextAfterFlee         = 650 * time.Millisecond
	NextAfterPendingClear = 600 * time.Millisecond
)

// Success chances are drawn uniformly from this band on every throw.
const (
	MinCatchChance = 0.10
	MaxCatchChance = 0.15
)
