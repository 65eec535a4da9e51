package vault

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// throttleBurst is the largest chunk a single limiter wait covers. Reads
// larger than this are split so the limiter's burst bound is never exceeded.
const throttleBurst = 32 * 1024

// ThrottleReader wraps r so it delivers at most kbps kilobytes per second.
// A kbps of zero or less means unlimited and returns r unchanged. The
// policy's bandwidth fields feed straight into this at the copy boundary.
func ThrottleReader(ctx context.Context, r io.Reader, kbps int64) io.Reader {
	if kbps <= 0 {
		return r
	}
	bytesPerSec := kbps * 1024
	burst := throttleBurst
	if int64(burst) > bytesPerSec {
		burst = int(bytesPerSec)
	}
	return &throttledReader{
		r:       r,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		ctx:     ctx,
	}
}

type throttledReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if len(p) > t.limiter.Burst() {
		p = p[:t.limiter.Burst()]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if waitErr := t.limiter.WaitN(t.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
