package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"cropfolder/internal/config"
	"cropfolder/internal/logger"
	"cropfolder/internal/routes"
	"cropfolder/internal/service"
	"cropfolder/internal/service/crop"
	"cropfolder/internal/service/imageproc"
	"cropfolder/internal/service/session"
	"cropfolder/internal/service/storage"
	"cropfolder/internal/service/websocket"

	"github.com/pkg/browser"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	folder     *storage.Folder
	processor  *imageproc.Processor
	hubService *websocket.HubService
	manager    *service.Manager
}

// NewApp prepares the target folder and wires the services. Problems with
// the folder are reported as configuration errors.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	folder := storage.NewFolder(cfg.TargetFolder, cfg.OutputDirectory)
	created, err := folder.EnsureOutputDir()
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("Created subfolder: %s", folder.OutputDir())
	}

	images, err := folder.Scan(cfg.ImageExtensions)
	if err != nil {
		if errors.Is(err, storage.ErrNoImages) {
			return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
		}
		return nil, err
	}
	logger.Info("Found %d image files", len(images))

	processor := imageproc.NewProcessor(imageproc.Options{
		JPEGQuality: cfg.JPEGQuality,
		WebPQuality: cfg.WebPQuality,
	})
	cropper := crop.NewCropper(processor, folder, logger)
	hub := websocket.NewHubService(logger)
	mng := service.NewManager(session.New(images), cropper, hub, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		folder:     folder,
		processor:  processor,
		hubService: hub,
		manager:    mng,
	}, nil
}

// Handler returns the HTTP handler of the application.
func (a *App) Handler() http.Handler {
	return routes.SetupRoutes(a.manager, a.processor, a.logger)
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.config.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.config.Address(), err)
	}

	server := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hubService.Run(ctx)
		return nil
	})

	g.Go(func() error {
		a.manager.Run(ctx)
		return nil
	})

	g.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()

		a.logger.Info("Shutting down server...")
		return server.Shutdown(shutdownCtx)
	})

	url := a.config.URL()
	if a.config.Port == 0 {
		url = fmt.Sprintf("http://%s", listener.Addr())
	}
	a.logger.Info("🚀 Crop Folder")
	a.logger.Info("📍 Server running at %s", url)
	a.logger.Info("📁 Images: %s", a.folder.Root())
	a.logger.Info("✂️  Output: %s", a.folder.OutputDir())

	if a.config.OpenBrowser {
		if err := browser.OpenURL(url); err != nil {
			a.logger.Warning("Could not open browser: %v", err)
		}
	}

	return g.Wait()
}
