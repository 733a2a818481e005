package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matheuscscp/obrawiser/config"
	"github.com/matheuscscp/obrawiser/services/events"
	"github.com/matheuscscp/obrawiser/services/extraction"
	"github.com/matheuscscp/obrawiser/services/media"
	"github.com/matheuscscp/obrawiser/services/secrets"
	"github.com/matheuscscp/obrawiser/services/sheets"
	"github.com/matheuscscp/obrawiser/services/whatsapp"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Build resolves secrets, validates conf and wires every service into a
// Handler. The returned func releases the clients and must be called once
// the Handler is no longer used.
func Build(ctx context.Context, conf *config.Config) (*Handler, func(), error) {
	if conf.NeedsSecrets() {
		secretsService, err := secrets.NewService(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating secrets service: %w", err)
		}
		err = conf.ResolveSecrets(ctx, secretsService)
		secretsService.Close()
		if err != nil {
			return nil, nil, err
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, nil, err
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	whatsappClient := whatsapp.NewClient(&conf.WhatsApp, nil)

	mediaService, err := media.NewService(ctx, &conf.Media)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating media service: %w", err)
	}
	closers = append(closers, mediaService.Close)

	generator, err := extraction.NewGenerator(ctx, &conf.AI)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("error creating generator: %w", err)
	}

	eventsService, err := events.NewService(ctx, conf.ProjectID, conf.Events.TopicID)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("error creating events service: %w", err)
	}
	closers = append(closers, eventsService.Close)

	sheetsService := sheets.NewService(&conf.Sheets)
	if !sheetsService.Configured() {
		logrus.Warn("Google Sheets credentials missing, rows will not be recorded")
	}

	h := NewHandler(&conf.WhatsApp, Deps{
		Extractor: extraction.NewService(generator, whatsappClient, mediaService),
		Recorder:  sheetsService,
		Messenger: whatsappClient,
		Publisher: eventsService,
	})
	return h, closeAll, nil
}

// NewRouter mounts the webhook and the health check.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/webhook", h.Verify).Methods(http.MethodGet)
	r.HandleFunc("/webhook", h.Receive).Methods(http.MethodPost)
	r.HandleFunc("/healthz", Health).Methods(http.MethodGet)
	return r
}

// Run serves the webhook until ctx is done.
func Run(ctx context.Context) error {
	conf, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	h, closeServices, err := Build(ctx, conf)
	if err != nil {
		return err
	}
	defer closeServices()

	srv := &http.Server{
		Addr:              ":" + conf.Port,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("server running on port %s", conf.Port)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
