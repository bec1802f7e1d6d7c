package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Tasks         *TaskHandler
	Sprints       *SprintHandler
	Stats         *StatsHandler
	Timers        *TimerHandler
	Notifications *NotificationHandler
	Sweep         *SweepHandler
	WS            *WSHandler
}

// NewRouter assembles the HTTP routing tree. Every /api route sits behind
// bearer token authentication; websocket endpoints authenticate the same
// way before upgrading.
func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Task lifecycle endpoints
			r.Post("/tasks", h.Tasks.CreateTask)
			r.Get("/tasks/{id}", h.Tasks.GetTask)
			r.Put("/tasks/{id}", h.Tasks.UpdateTask)
			r.Delete("/tasks/{id}", h.Tasks.DeleteTask)
			r.Post("/tasks/{id}/status", h.Tasks.ChangeStatus)
			r.Get("/tasks/{id}/history", h.Tasks.GetHistory)
			r.Get("/tasks/{id}/files", h.Tasks.ListFiles)
			r.Get("/tasks/{id}/time-entries", h.Timers.ListTaskEntries)
			r.Post("/tasks/sweep", h.Sweep.RunSweep)
			r.Get("/projects/{projectID}/tasks", h.Tasks.ListTasks)

			// Sprint lifecycle endpoints
			r.Post("/sprints", h.Sprints.CreateSprint)
			r.Get("/sprints/{id}", h.Sprints.GetSprint)
			r.Put("/sprints/{id}", h.Sprints.UpdateSprint)
			r.Delete("/sprints/{id}", h.Sprints.DeleteSprint)
			r.Get("/projects/{projectID}/sprints", h.Sprints.ListSprints)
			r.Get("/projects/{projectID}/sprints/default", h.Sprints.DefaultSprint)

			// Statistics endpoints
			r.Get("/projects/{projectID}/stats/status", h.Stats.StatusOverview)
			r.Get("/projects/{projectID}/stats/workload", h.Stats.TeamWorkload)
			r.Get("/projects/{projectID}/stats/priorities", h.Stats.PriorityBreakdown)
			r.Get("/projects/{projectID}/stats/activity", h.Stats.RecentActivity)
			r.Get("/sprints/{id}/progress", h.Stats.SprintProgress)
			r.Get("/members/{id}/productivity", h.Stats.MemberProductivity)

			// Time tracking endpoints
			r.Post("/timers/start", h.Timers.StartTimer)
			r.Post("/timers/stop", h.Timers.StopTimer)
			r.Get("/timers/running", h.Timers.RunningTimer)
			r.Get("/timers/total", h.Timers.TotalTime)

			// Notification endpoints
			r.Get("/notifications", h.Notifications.ListNotifications)
			r.Post("/notifications/{id}/viewed", h.Notifications.MarkViewed)
		})
	})

	// Websocket channels
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/ws/notifications", h.WS.Notifications)
		r.Get("/ws/tasks/{id}/comments", h.WS.TaskComments)
	})

	return r
}
