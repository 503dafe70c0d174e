package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"ratebot/internal/app"
	"ratebot/internal/charts"
	"ratebot/internal/httputil"
	"ratebot/internal/store"
)

type statsResponse struct {
	TotalCount int64              `json:"total_count"`
	TotalAvg   float64            `json:"average_rating"`
	PerModel   map[string]float64 `json:"average_by_model"`
	UserID     *int64             `json:"user_id,omitempty"`
	UserCount  *int64             `json:"user_count,omitempty"`
	UserAvg    *float64           `json:"user_average,omitempty"`
}

func main() {
	deps, err := app.BuildAPI()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Store.Close()
	defer deps.Cache.Close()
	if deps.Queue != nil {
		defer deps.Queue.Close()
	}

	r := httputil.NewRouter(deps.Log)
	r.Get("/api/stats", statsHandler(deps))
	r.Get("/api/stats/users/{id}", userStatsHandler(deps))
	r.Get("/api/charts/{name}", chartHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("statsapi listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error { return deps.Stats.RunInvalidator(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("statsapi stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("statsapi shut down")
}

func statsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := globalStats(r.Context(), deps)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to compute stats", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func userStatsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid user id", err, http.StatusBadRequest)
			return
		}

		resp, err := globalStats(ctx, deps)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to compute stats", err, http.StatusInternalServerError)
			return
		}

		userCount, err := deps.Store.Count(ctx, store.Filter{UserID: &userID})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to compute stats", err, http.StatusInternalServerError)
			return
		}
		userAvg, err := deps.Store.Average(ctx, store.Filter{UserID: &userID})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to compute stats", err, http.StatusInternalServerError)
			return
		}

		resp.UserID = &userID
		resp.UserCount = &userCount
		resp.UserAvg = &userAvg
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func globalStats(ctx context.Context, deps app.Deps) (statsResponse, error) {
	total, err := deps.Store.Count(ctx, store.Filter{})
	if err != nil {
		return statsResponse{}, err
	}
	avg, err := deps.Store.Average(ctx, store.Filter{})
	if err != nil {
		return statsResponse{}, err
	}

	perModel := make(map[string]float64)
	for key, name := range deps.Registry.Names() {
		modelAvg, err := deps.Store.Average(ctx, store.Filter{Model: key})
		if err != nil {
			return statsResponse{}, err
		}
		perModel[name] = modelAvg
	}

	return statsResponse{TotalCount: total, TotalAvg: avg, PerModel: perModel}, nil
}

func chartHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		name := chi.URLParam(r, "name")
		var render func([]store.Rating, map[string]string) (charts.Artifact, error)
		switch name {
		case "distribution":
			render = charts.RatingDistribution
		case "averages":
			render = charts.AverageByModel
		default:
			httputil.Fail(deps.Log, w, fmt.Sprintf("unknown chart: %s", name), nil, http.StatusNotFound)
			return
		}

		records, err := deps.Store.List(ctx)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load ratings", err, http.StatusInternalServerError)
			return
		}

		artifact, err := render(records, deps.Registry.Names())
		if errors.Is(err, charts.ErrNoData) {
			httputil.Fail(deps.Log, w, "no ratings recorded yet", nil, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to render chart", err, http.StatusInternalServerError)
			return
		}

		httputil.WritePNG(w, artifact.PNG)
	}
}
