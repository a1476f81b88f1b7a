package eventbus

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/process"
	"github.com/tablestack/resto-pos/backend/internal/projection"
)

// BuildRouter assembles the event dispatch pipeline: the projector and the
// process manager subscribe to committed order events, and an optional relay
// forwards every record to the broker for external consumers (kitchen
// display, dashboards). Handlers run under recover and bounded retry.
func BuildRouter(
	logger watermill.LoggerAdapter,
	sub message.Subscriber,
	projector *projection.OrderProjector,
	manager *process.TakeOrderManager,
	relay message.Publisher,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          logger,
		}.Middleware,
	)

	router.AddNoPublisherHandler(
		"order_projector",
		TopicOrderEvents,
		sub,
		func(msg *message.Message) error {
			rec, err := DecodeRecord(msg)
			if err != nil {
				return err
			}
			return projector.HandleRecord(msg.Context(), rec)
		},
	)

	router.AddNoPublisherHandler(
		"take_order_process",
		TopicOrderEvents,
		sub,
		func(msg *message.Message) error {
			rec, err := DecodeRecord(msg)
			if err != nil {
				return err
			}
			err = manager.HandleRecord(msg.Context(), rec)
			var verrs entity.ValidationErrors
			if errors.As(err, &verrs) {
				// The workflow halted on a business-rule failure. The request
				// path already surfaced it to the caller; retrying here cannot
				// fix the cart.
				slog.Warn("Take-order workflow halted", "stream_id", rec.StreamID, "err", err)
				return nil
			}
			return err
		},
	)

	if relay != nil {
		router.AddHandler(
			"kafka_relay",
			TopicOrderEvents,
			sub,
			TopicOrderEvents,
			relay,
			func(msg *message.Message) ([]*message.Message, error) {
				return message.Messages{msg}, nil
			},
		)
	}

	return router, nil
}
