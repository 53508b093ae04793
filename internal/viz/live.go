package viz

import (
	"fmt"
	"io"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

const liveSparkWidth = 40

// LiveRenderer redraws a single status line while a run progresses. It
// implements dynamo.Observer and draws at most frames times per run.
type LiveRenderer struct {
	w       io.Writer
	system  string
	total   int
	stride  int
	seen    int
	history []float64
}

func NewLiveRenderer(w io.Writer, system string, total, frames int) *LiveRenderer {
	if frames < 1 {
		frames = 1
	}
	stride := total / frames
	if stride < 1 {
		stride = 1
	}
	return &LiveRenderer{
		w:       w,
		system:  system,
		total:   total,
		stride:  stride,
		history: make([]float64, 0, frames+1),
	}
}

func (r *LiveRenderer) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	r.seen++
	if r.seen%r.stride != 0 && r.seen != r.total {
		return
	}

	y := x[0]
	r.history = append(r.history, y)

	var uv float64
	if len(u) > 0 {
		uv = u[0]
	}
	fraction := float64(r.seen) / float64(max(r.total, 1))
	fmt.Fprintf(r.w, "\r%s %s t=%6.3fs y=%+8.4f u=%+8.3f %s",
		r.system, ProgressBar(fraction, 20), t, y, uv, Sparkline(r.history, liveSparkWidth))
}

// Frames is the number of lines drawn so far.
func (r *LiveRenderer) Frames() int { return len(r.history) }

// Finish terminates the status line.
func (r *LiveRenderer) Finish() { fmt.Fprintln(r.w) }
