package inject

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"github.com/petems/speaches-tray/internal/config"
)

type clipboardInjector struct {
	cfg config.InjectConfig
	log zerolog.Logger
}

// New creates a clipboard-backed text injector.
func New(cfg config.InjectConfig, log zerolog.Logger) Injector {
	return &clipboardInjector{
		cfg: cfg,
		log: log,
	}
}

// Deliver writes text to the system clipboard. When PreferPaste is set
// it also sends a platform paste keystroke so the text lands directly
// in the focused window; if that fails the text stays on the clipboard
// and the user can paste manually.
func (p *clipboardInjector) Deliver(ctx context.Context, text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	if p.cfg.PreferPaste {
		if err := platformPaste(ctx); err != nil {
			p.log.Debug().Err(err).Msg("Paste keystroke failed, text left on clipboard")
		}
	}
	return nil
}
