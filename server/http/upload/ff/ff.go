// Package ff wraps the ffmpeg and ffprobe binaries to extract frames and
// dimensions from videos.
package ff

import (
	"context"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

const waitDura = 5 * time.Second

var sema = semaphore.NewWeighted(int64(runtime.GOMAXPROCS(-1) * 2))

// ErrUnavailable is returned if ffmpeg or ffprobe is not in $PATH.
var ErrUnavailable = errors.New("ffmpeg is not available")

var (
	availableOnce sync.Once
	available     bool
)

// Available returns true if both ffmpeg and ffprobe can be found.
func Available() bool {
	availableOnce.Do(func() {
		_, ffmpegErr := exec.LookPath("ffmpeg")
		_, ffprobeErr := exec.LookPath("ffprobe")
		available = ffmpegErr == nil && ffprobeErr == nil
	})
	return available
}

func acq(ctx context.Context) error {
	if !Available() {
		return ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, waitDura)
	defer cancel()

	err := sema.Acquire(ctx, 1)
	return errors.Wrap(err, "Failed to wait for pending jobs")
}
