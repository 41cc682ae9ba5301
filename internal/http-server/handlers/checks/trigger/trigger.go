package triggerCheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	resp "github.com/colelamarris56-code/price-monitor/internal/lib/api/response"
	sl "github.com/colelamarris56-code/price-monitor/internal/lib/logger"
	"github.com/colelamarris56-code/price-monitor/internal/middleware/auth"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Enqueued int    `json:"enqueued"`
	Message  string `json:"message"`
}

type CheckTrigger interface {
	EnqueuePriceChecks(ctx context.Context) (int, error)
}

// New runs a price-check cycle on demand and reports how many jobs were
// enqueued. Skipped products are logged by the scheduler, not hidden here.
func New(
	log *slog.Logger,
	trigger CheckTrigger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checks.trigger.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := auth.UserID(r.Context())
		if !ok {
			log.Error("User ID not found in context")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		count, err := trigger.EnqueuePriceChecks(r.Context())
		if err != nil {
			log.Error("Failed to trigger price checks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Price checks triggered",
			slog.Int("enqueued", count),
			slog.Int64("user_id", userID),
		)

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Enqueued: count,
			Message:  fmt.Sprintf("Successfully enqueued %d price checks.", count),
		})
	}
}
