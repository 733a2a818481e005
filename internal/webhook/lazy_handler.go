package webhook

import (
	"context"
	"net/http"

	"github.com/matheuscscp/obrawiser/config"
	"github.com/matheuscscp/obrawiser/internal/lazy"

	"github.com/sirupsen/logrus"
)

type (
	// LazyHandler builds its handler on the first request. A failed build
	// answers 500 and is retried on the next request.
	LazyHandler struct {
		handler *lazy.Value[http.Handler]
	}
)

// NewLazyHandler ...
func NewLazyHandler(build func(ctx context.Context) (http.Handler, error)) *LazyHandler {
	return &LazyHandler{handler: lazy.New(build)}
}

// BuildFromEnv loads the config and builds the Handler. The services live
// as long as the process.
func BuildFromEnv(ctx context.Context) (http.Handler, error) {
	conf, err := config.Load()
	if err != nil {
		return nil, err
	}
	h, _, err := Build(ctx, conf)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (l *LazyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// the handler outlives the request that builds it
	h, err := l.handler.Get(context.WithoutCancel(r.Context()))
	if err != nil {
		logrus.WithError(err).Error("error building webhook handler")
		replyStatusCode(w, http.StatusInternalServerError)
		return
	}
	h.ServeHTTP(w, r)
}
