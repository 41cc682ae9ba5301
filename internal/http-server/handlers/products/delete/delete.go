package deleteProduct

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "github.com/colelamarris56-code/price-monitor/internal/lib/api/response"
	sl "github.com/colelamarris56-code/price-monitor/internal/lib/logger"
	"github.com/colelamarris56-code/price-monitor/internal/middleware/auth"
	"github.com/colelamarris56-code/price-monitor/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
}

type ProductRemover interface {
	DeleteProduct(ctx context.Context, productID string) error
}

func New(
	log *slog.Logger,
	remover ProductRemover,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		productID := r.URL.Query().Get("id")
		if productID == "" {
			log.Error("Missing product id")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Missing product id"))

			return
		}

		userID, ok := auth.UserID(r.Context())
		if !ok {
			log.Error("User ID not found in context")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := remover.DeleteProduct(ctx, productID); err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				log.Info("Product not found", slog.String("product_id", productID))

				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Product not found"))

				return
			}

			log.Error("Failed to delete product",
				sl.Err(err),
				slog.String("product_id", productID),
			)

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Product deleted successfully",
			slog.String("product_id", productID),
			slog.Int64("user_id", userID),
		)

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}
