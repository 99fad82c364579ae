package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/afero"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/cache"
	"github.com/skillfinite/skillfinite/internal/config"
	"github.com/skillfinite/skillfinite/internal/logging"
	"github.com/skillfinite/skillfinite/internal/ui"
)

// Options configure the Skillfinite client.
type Options struct {
	ConfigPath string
	PollEvery  int // seconds; zero uses the config value
}

// Run boots the Skillfinite TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logs, err := logging.Setup(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logs.Close()

	client, err := api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithRetry(cfg.RetryAttempts, 0),
	)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	fs := afero.NewOsFs()
	storage := cache.NewFile(fs, cfg.CachePath())

	svc := NewServices(client, storage)
	defer svc.Close()

	sess := svc.Bootstrap(ctx)
	log.Printf("[app] api %s, signed in: %v", client.BaseURL(), sess.IsAuthenticated())

	interval := cfg.PollEvery
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	syncer := NewSyncer(svc, interval)
	// Populate the store before the UI draws its first frame
	syncer.Prime(ctx)
	syncer.Start(ctx)
	defer syncer.Stop()

	themeName := cfg.Theme
	if saved, ok := storage.Get(cache.KeyTheme); ok && saved != "" {
		themeName = saved
	}

	return ui.Run(ui.Options{
		Context:    ctx,
		Session:    svc.Session,
		Wishlist:   svc.Wishlist,
		Cart:       svc.Cart,
		Enrollment: svc.Enrollment,
		Inbox:      svc.Inbox,
		Store:      svc.State,
		Cache:      storage,
		Syncer:     syncer,
		LoggedOut:  svc.LoggedOut(),
		Files:      fs,
		LogPath:    cfg.LogFile,
		ThemeName:  themeName,
	})
}
