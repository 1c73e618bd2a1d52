package present

import (
	"context"

	"hexa-arcade/internal/engine"

	"github.com/rs/zerolog/log"
)

// Fanout renders through a primary presenter whose failures are authoritative and
// mirrors every snapshot to best-effort secondaries.
type Fanout struct {
	Primary     engine.Presenter
	Secondaries []engine.Presenter
}

func NewFanout(primary engine.Presenter, secondaries ...engine.Presenter) *Fanout {
	if primary == nil {
		primary = engine.NopPresenter{}
	}
	return &Fanout{Primary: primary, Secondaries: secondaries}
}

func (f *Fanout) Render(ctx context.Context, snap engine.Snapshot) (string, error) {
	handle, err := f.Primary.Render(ctx, snap)
	if err != nil {
		return "", err
	}
	for _, p := range f.Secondaries {
		if _, err := p.Render(ctx, snap); err != nil {
			log.Warn().Err(err).Str("session_id", snap.SessionID).Msg("secondary render failed")
		}
	}
	return handle, nil
}

func (f *Fanout) Update(ctx context.Context, handle string, snap engine.Snapshot) error {
	for _, p := range f.Secondaries {
		if err := p.Update(ctx, snap.SessionID, snap); err != nil {
			log.Warn().Err(err).Str("session_id", snap.SessionID).Msg("secondary update failed")
		}
	}
	return f.Primary.Update(ctx, handle, snap)
}

func (f *Fanout) Forget(handle string) {
	if fg, ok := f.Primary.(engine.Forgetter); ok {
		fg.Forget(handle)
	}
}
