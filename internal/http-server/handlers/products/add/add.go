package addProduct

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
	validator "github.com/go-playground/validator/v10"
)

type Request struct {
	URL         string  `json:"url" validate:"required,url"`
	Title       string  `json:"title" validate:"required"`
	TargetPrice float64 `json:"target_price" validate:"required,gte=0"`
	Selector    string  `json:"selector,omitempty"`
}

type Response struct {
	resp.Response
	ProductID string `json:"product_id"`
}

type ProductTracker interface {
	TrackProduct(ctx context.Context, url, title string, targetPrice float64, selector string) (string, error)
}

func New(
	log *slog.Logger,
	tracker ProductTracker,
	validate *validator.Validate,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.add.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

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

		productID, err := tracker.TrackProduct(ctx, req.URL, req.Title, req.TargetPrice, req.Selector)
		if err != nil {
			if errors.Is(err, storage.ErrProductExists) {
				log.Info("Product already tracked", slog.String("url", req.URL))

				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Product is already tracked"))

				return
			}

			log.Error("Failed to track product", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Product tracked successfully",
			slog.String("product_id", productID),
			slog.Int64("user_id", userID),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response:  resp.OK(),
			ProductID: productID,
		})
	}
}
