package http

import (
	"net/http"

	"passmais-agenda/internal/delivery/http/handler"
	"passmais-agenda/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	availabilityHandler *handler.AvailabilityHandler
	appointmentHandler  *handler.AppointmentHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	metricsGatherer     prometheus.Gatherer
}

func NewRouter(
	authHandler *handler.AuthHandler,
	availabilityHandler *handler.AvailabilityHandler,
	appointmentHandler *handler.AppointmentHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metricsGatherer prometheus.Gatherer,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		availabilityHandler: availabilityHandler,
		appointmentHandler:  appointmentHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		metricsGatherer:     metricsGatherer,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.Handle("/metrics", promhttp.HandlerFor(r.metricsGatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Session routes (protected)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(r.authMiddleware.Authenticate)
	auth.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)
	auth.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)

	// Doctor routes (protected - doctor only)
	doctor := api.PathPrefix("/doctor/availability").Subrouter()
	doctor.Use(r.authMiddleware.Authenticate)
	doctor.Use(middleware.RequireDoctor)

	doctor.HandleFunc("", r.availabilityHandler.GetAvailability).Methods(http.MethodGet)
	doctor.HandleFunc("/specific/{date}", r.availabilityHandler.SaveSpecificDay).Methods(http.MethodPut)
	doctor.HandleFunc("/specific/{date}", r.availabilityHandler.ClearSpecificDay).Methods(http.MethodDelete)
	doctor.HandleFunc("/recurring/{weekday}", r.availabilityHandler.SaveRecurringDay).Methods(http.MethodPut)
	doctor.HandleFunc("/recurring/{weekday}/toggle", r.availabilityHandler.ToggleRecurringDay).Methods(http.MethodPost)
	doctor.HandleFunc("/settings", r.availabilityHandler.SaveSettings).Methods(http.MethodPut)
	doctor.HandleFunc("/validate", r.availabilityHandler.ValidateRanges).Methods(http.MethodPost)
	doctor.HandleFunc("/preview", r.availabilityHandler.GetWeekPreview).Methods(http.MethodGet)
	doctor.HandleFunc("/preview/{date}/{time}", r.availabilityHandler.RemovePreviewSlot).Methods(http.MethodDelete)
	doctor.HandleFunc("/publish", r.availabilityHandler.PublishSchedule).Methods(http.MethodPost)
	doctor.HandleFunc("/history", r.auditLogHandler.GetHistory).Methods(http.MethodGet)

	// Patient routes (protected - patient only)
	patient := api.PathPrefix("/patient").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)

	patient.HandleFunc("/appointments", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	patient.HandleFunc("/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment).Methods(http.MethodPost)
	patient.HandleFunc("/appointments/{id}/reschedule", r.appointmentHandler.RescheduleAppointment).Methods(http.MethodPost)
	patient.HandleFunc("/doctors/{doctorId}/schedule", r.appointmentHandler.GetDoctorSchedule).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
