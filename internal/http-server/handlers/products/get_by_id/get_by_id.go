package getByID

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "github.com/colelamarris56-code/price-monitor/internal/lib/api/response"
	sl "github.com/colelamarris56-code/price-monitor/internal/lib/logger"
	"github.com/colelamarris56-code/price-monitor/internal/models"
	"github.com/colelamarris56-code/price-monitor/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const historyLimit = 50

type Response struct {
	resp.Response
	Product      models.Product            `json:"product"`
	Observations []models.PriceObservation `json:"observations"`
}

type ProductGetter interface {
	ProductWithHistory(ctx context.Context, productID string, historyLimit int64) (models.Product, []models.PriceObservation, error)
}

func New(
	log *slog.Logger,
	productGetter ProductGetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.get_by_id.New"

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

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		product, observations, err := productGetter.ProductWithHistory(ctx, productID, historyLimit)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				log.Info("Product not found", slog.String("product_id", productID))

				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Product not found"))

				return
			}

			log.Error("Failed to get product",
				sl.Err(err),
				slog.String("product_id", productID),
			)

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if observations == nil {
			observations = []models.PriceObservation{}
		}

		w.Header().Set("Cache-Control", "private, max-age=60")

		log.Info("Product retrieved successfully", slog.String("product_id", productID))

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Product:      product,
			Observations: observations,
		})
	}
}
