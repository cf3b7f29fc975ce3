package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/neven/neven/internal/middleware"
	"github.com/neven/neven/internal/models"
	"github.com/neven/neven/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func NewRouter(
	adminHandlers *AdminHandlers,
	customerHandlers *CustomerHandlers,
	authMiddleware *middleware.AuthMiddleware,
	allowedOrigins []string,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware(allowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api").Subrouter()

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/login", adminHandlers.Login).Methods("POST", "OPTIONS")
	admin.HandleFunc("/logout", adminHandlers.Logout).Methods("POST", "OPTIONS")
	admin.Handle("/me", authMiddleware.RequireRole(models.RoleAdmin, service.AdminCookieName)(
		http.HandlerFunc(adminHandlers.Me),
	)).Methods("GET", "OPTIONS")

	customer := api.PathPrefix("/customer").Subrouter()
	customer.HandleFunc("/send-otp", customerHandlers.SendOTP).Methods("POST", "OPTIONS")
	customer.HandleFunc("/signup", customerHandlers.Signup).Methods("POST", "OPTIONS")
	customer.HandleFunc("/login", customerHandlers.Login).Methods("POST", "OPTIONS")
	customer.HandleFunc("/logout", customerHandlers.Logout).Methods("POST", "OPTIONS")
	customer.Handle("/me", authMiddleware.RequireRole(models.RoleCustomer, service.CustomerCookieName)(
		http.HandlerFunc(customerHandlers.Me),
	)).Methods("GET", "OPTIONS")

	return router
}
