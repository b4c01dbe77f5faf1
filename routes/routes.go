package routes

import (
	"net/http"

	_ "github.com/Dosada05/festival-teams/docs"
	"github.com/Dosada05/festival-teams/handlers"
	"github.com/Dosada05/festival-teams/middleware"
	"github.com/Dosada05/festival-teams/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Team         *handlers.TeamHandler
	Invitation   *handlers.InvitationHandler
	JoinRequest  *handlers.JoinRequestHandler
	Search       *handlers.SearchHandler
	Registration *handlers.RegistrationHandler
	Admin        *handlers.AdminHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, auth *middleware.Authenticator, allowedOrigins []string, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", h.Team.CreateTeam)
			r.Get("/mine", h.Team.ListMyTeams)
			r.Get("/search", h.Search.SearchTeams)
			r.Post("/sync", h.Team.SyncMyTeams)

			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", h.Team.GetTeam)
				r.Patch("/", h.Team.UpdateTeam)
				r.Delete("/", h.Team.DisbandTeam)
				r.Post("/members", h.Team.AddMember)
				r.Delete("/members/{userID}", h.Team.RemoveMember)
				r.Get("/invitations", h.Invitation.ListTeamInvitations)
				r.Post("/invitations", h.Invitation.SendInvitation)
				r.Get("/candidates", h.Search.SearchCandidates)
				r.Post("/join-requests", h.JoinRequest.SendJoinRequest)
				r.Post("/payments", h.Registration.InitiateTeamPayment)
			})
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Get("/mine", h.Invitation.ListMyInvitations)
			r.Post("/{invitationID}/accept", h.Invitation.AcceptInvitation)
			r.Post("/{invitationID}/reject", h.Invitation.RejectInvitation)
			r.Post("/{invitationID}/cancel", h.Invitation.CancelInvitation)
		})

		r.Route("/join-requests", func(r chi.Router) {
			r.Get("/mine", h.JoinRequest.ListMine)
			r.Get("/incoming", h.JoinRequest.ListIncoming)
			r.Post("/{requestID}/accept", h.JoinRequest.AcceptJoinRequest)
			r.Post("/{requestID}/reject", h.JoinRequest.RejectJoinRequest)
			r.Post("/{requestID}/cancel", h.JoinRequest.CancelJoinRequest)
		})

		r.Get("/registrations/mine", h.Registration.ListMyRegistrations)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authorize(models.UserRoleAdmin))
			r.Get("/teams/stats", h.Admin.TeamStatistics)
			r.Post("/teams/report", h.Admin.ExportTeamReport)
		})

		r.Get("/ws/teams/{teamID}", h.WebSocket.ServeTeam)
		r.Get("/ws/me", h.WebSocket.ServeMe)
	})
}
