package tui

// RuntimeConfig holds the settings that can change while the board is open.
type RuntimeConfig struct {
	ShowDescriptions bool
	MarkdownWrap     int
}

// Option configures a Model.
type Option func(*Model)

// DefaultRuntimeConfig returns the settings used when no option overrides them.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		ShowDescriptions: true,
		MarkdownWrap:     72,
	}
}

func WithRuntimeConfig(cfg RuntimeConfig) Option {
	return func(m *Model) {
		m.showDescriptions = cfg.ShowDescriptions
		if cfg.MarkdownWrap > 0 {
			m.markdownWrap = cfg.MarkdownWrap
		}
	}
}

// WithActivityLimit bounds how many ledger rows the activity log loads.
func WithActivityLimit(limit int) Option {
	return func(m *Model) {
		if limit > 0 {
			m.activityLimit = limit
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.writeClipboard = write
		}
	}
}

// WithTitle sets the name shown in the header.
func WithTitle(title string) Option {
	return func(m *Model) {
		if title != "" {
			m.title = title
		}
	}
}
