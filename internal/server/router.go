package server

import (
	"context"
	"database/sql"
	"net/http"

	"arzmania-cards/internal/api"
	"arzmania-cards/internal/constants"
	"arzmania-cards/internal/middleware"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// NewRouter mounts every CardService procedure and /healthz.
func NewRouter(cards *CardServer, db *sql.DB, logger zerolog.Logger) http.Handler {
	opts := []connect.HandlerOption{connect.WithCodec(api.Codec{})}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), constants.DatabaseTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zerolog.Ctx(req.Context()).Warn().Err(err).Msg("health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle(api.ProcedureDrawLoot, connect.NewUnaryHandler(api.ProcedureDrawLoot, cards.DrawLoot, opts...))
	r.Handle(api.ProcedureResetCooldown, connect.NewUnaryHandler(api.ProcedureResetCooldown, cards.ResetCooldown, opts...))
	r.Handle(api.ProcedureDuel, connect.NewUnaryHandler(api.ProcedureDuel, cards.Duel, opts...))
	r.Handle(api.ProcedureGetStats, connect.NewUnaryHandler(api.ProcedureGetStats, cards.GetStats, opts...))
	r.Handle(api.ProcedureGetRecord, connect.NewUnaryHandler(api.ProcedureGetRecord, cards.GetRecord, opts...))
	r.Handle(api.ProcedureAddCard, connect.NewUnaryHandler(api.ProcedureAddCard, cards.AddCard, opts...))
	r.Handle(api.ProcedureDeleteCard, connect.NewUnaryHandler(api.ProcedureDeleteCard, cards.DeleteCard, opts...))
	r.Handle(api.ProcedureSetCardImage, connect.NewUnaryHandler(api.ProcedureSetCardImage, cards.SetCardImage, opts...))
	r.Handle(api.ProcedureListCards, connect.NewUnaryHandler(api.ProcedureListCards, cards.ListCards, opts...))
	r.Handle(api.ProcedureListInventory, connect.NewUnaryHandler(api.ProcedureListInventory, cards.ListInventory, opts...))
	r.Handle(api.ProcedureGiveCard, connect.NewUnaryHandler(api.ProcedureGiveCard, cards.GiveCard, opts...))
	r.Handle(api.ProcedureGrantCard, connect.NewUnaryHandler(api.ProcedureGrantCard, cards.GrantCard, opts...))
	r.Handle(api.ProcedureGetCard, connect.NewUnaryHandler(api.ProcedureGetCard, cards.GetCard, opts...))
	r.Handle(api.ProcedureSetFavorite, connect.NewUnaryHandler(api.ProcedureSetFavorite, cards.SetFavorite, opts...))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader, api.ErrorCodeHeader},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
