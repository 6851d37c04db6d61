package presenter

import (
	"io"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/application"
	"github.com/WangYihang/Domain-Checker/pkg/common"
	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressBar renders run progress as a single mpb bar
type ProgressBar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	last     time.Time
	mu       sync.Mutex
}

// NewProgressBar creates a bar for total domains writing to output
func NewProgressBar(total int, output io.Writer) *ProgressBar {
	p := mpb.New(
		mpb.WithOutput(output),
		mpb.WithWidth(common.ProgressBarWidth(60)),
		mpb.WithRefreshRate(150*time.Millisecond),
	)
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("checking", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
			decor.OnComplete(
				decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncSpace), "done",
			),
		),
	)
	return &ProgressBar{
		progress: p,
		bar:      bar,
		last:     time.Now(),
	}
}

// OnRunUpdate implements application.RunObserver
func (p *ProgressBar) OnRunUpdate(snapshot application.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.bar.EwmaSetCurrent(int64(snapshot.Stats.Processed), now.Sub(p.last))
	p.last = now

	switch snapshot.State {
	case entity.RunStateCompleted:
		p.bar.SetTotal(-1, true)
	case entity.RunStateCancelled:
		p.bar.Abort(false)
	}
}

// Wait blocks until the bar has finished rendering
func (p *ProgressBar) Wait() {
	p.progress.Wait()
}
