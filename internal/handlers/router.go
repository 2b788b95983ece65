package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/listview"
	"github.com/ukydev/fleetfix/internal/middleware"
	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/service"
	"github.com/ukydev/fleetfix/internal/upload"
)

// AuthService manages browser sessions.
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, token string) (*models.Claims, error)
	TokenSource(sessionID string) api.TokenSource
}

// RepairService lists and updates repair work.
type RepairService interface {
	List(ctx context.Context, actor service.Actor, req service.ListRequest) (*service.ListResult, error)
	Refresh(ctx context.Context, actor service.Actor, req service.ListRequest) (*service.ListResult, error)
	Detail(ctx context.Context, code string) (*service.Detail, error)
	SaveTask(ctx context.Context, actor service.Actor, in service.SaveTaskInput) (*models.RepairRecord, error)
	Complete(ctx context.Context, actor service.Actor, code string) ([]models.RepairRecord, error)
	Summary(ctx context.Context, codes []string) (map[string][]models.TaskItem, error)
	Autocomplete(ctx context.Context, term string) (*models.CustomerPlantAutocomplete, error)
}

// PhotoService stores truck photos.
type PhotoService interface {
	Get(ctx context.Context, plate string) (*models.TruckImageSubmission, error)
	Submit(ctx context.Context, plate string, photos map[models.PhotoSide]*upload.File) (*models.TruckImageSubmission, error)
}

// TireService records tire tread.
type TireService interface {
	Get(ctx context.Context, plate string) (*models.TruckTires, error)
	Submit(ctx context.Context, actor service.Actor, plate string, sub service.TireSubmission) (*service.TireResult, error)
}

// InspectionService runs truck inspections.
type InspectionService interface {
	Checklist(ctx context.Context, actor service.Actor, customer string) ([]models.ChecklistItem, error)
	SearchTrucks(ctx context.Context, actor service.Actor, q string) []models.Truck
	Records(ctx context.Context, actor service.Actor, plate string) (*models.InspectionRecords, error)
	Submit(ctx context.Context, actor service.Actor, sub service.InspectionSubmission) (*service.InspectionResult, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the services behind the HTTP API.
type Deps struct {
	Auth        AuthService
	Repairs     RepairService
	Photos      PhotoService
	Tires       TireService
	Inspections InspectionService
	Checks      map[string]HealthCheck
	Logger      *log.Logger

	// LoginLimit caps login attempts per client IP per minute.
	LoginLimit int
}

// Router wraps the mux router
type Router struct {
	*mux.Router
	checks map[string]HealthCheck
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	if deps.LoginLimit <= 0 {
		deps.LoginLimit = 10
	}

	r := &Router{Router: mux.NewRouter(), checks: deps.Checks}
	r.Use(middleware.RequestLogger(deps.Logger))

	authMW := middleware.NewAuthMiddleware(deps.Auth)
	limiter := middleware.NewRateLimitMiddleware()

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(authMW.Authenticate)

	authH := NewAuthHandler(deps.Auth)
	authRoutes := apiRouter.PathPrefix("/auth").Subrouter()
	authRoutes.Handle("/login", limiter.RateLimit(deps.LoginLimit, time.Minute)(http.HandlerFunc(authH.Login))).Methods("POST")
	authRoutes.HandleFunc("/refresh", authH.Refresh).Methods("POST")
	authRoutes.Handle("/register", authMW.RequireRole(models.RoleAdmin)(http.HandlerFunc(authH.Register))).Methods("POST")
	authRoutes.HandleFunc("/logout", authH.Logout).Methods("POST")
	authRoutes.HandleFunc("/me", authH.Me).Methods("GET")

	repairH := NewRepairHandler(deps.Repairs, deps.Auth)
	repairs := apiRouter.PathPrefix("/repairs").Subrouter()
	repairs.HandleFunc("", repairH.List).Methods("GET")
	repairs.HandleFunc("/refresh", repairH.Refresh).Methods("POST")
	repairs.HandleFunc("/summary", repairH.Summary).Methods("GET")
	repairs.HandleFunc("/{code}", repairH.Detail).Methods("GET")
	repairs.HandleFunc("/{code}/tasks/{taskID:[0-9]+}", repairH.SaveTask).Methods("POST")
	repairs.HandleFunc("/{code}/complete", repairH.Complete).Methods("POST")
	apiRouter.HandleFunc("/autocomplete/customers", repairH.Autocomplete).Methods("GET")

	truckH := NewTruckHandler(deps.Tires, deps.Photos, deps.Inspections, deps.Auth)
	apiRouter.HandleFunc("/trucks/search", truckH.Search).Methods("GET")
	apiRouter.HandleFunc("/tires/{plate}", truckH.GetTires).Methods("GET")
	apiRouter.HandleFunc("/tires/{plate}", truckH.SubmitTires).Methods("POST")
	apiRouter.HandleFunc("/photos/{plate}", truckH.GetPhotos).Methods("GET")
	apiRouter.HandleFunc("/photos/{plate}", truckH.SubmitPhotos).Methods("POST")

	inspectionH := NewInspectionHandler(deps.Inspections, deps.Auth)
	inspections := apiRouter.PathPrefix("/inspections").Subrouter()
	inspections.HandleFunc("", inspectionH.Records).Methods("GET")
	inspections.HandleFunc("", inspectionH.Submit).Methods("POST")
	inspections.HandleFunc("/checklist", inspectionH.Checklist).Methods("GET")

	return r
}

// healthCheck reports ok only when every dependency answers.
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(r.checks))
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	respondJSON(w, status, body)
}

// actorFor builds the service actor from the authenticated request.
func actorFor(authSvc AuthService, r *http.Request) (service.Actor, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		Username:  claims.Username,
		SessionID: claims.SessionID,
		Tokens:    authSvc.TokenSource(claims.SessionID),
	}, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// listQuery parses the repair list query string.
func listQuery(r *http.Request) service.ListRequest {
	q := r.URL.Query()
	req := service.ListRequest{
		Tab:   models.Tab(q.Get("tab")),
		Order: listview.ParseSortOrder(q.Get("sort")),
		Page:  atoiDefault(q.Get("page"), 0),
		Filters: models.FilterSet{
			Truckplate:    q.Get("truckplate"),
			DateStart:     q.Get("datestart"),
			DateEnd:       q.Get("dateend"),
			Customer:      q.Get("customer"),
			Plant:         q.Get("plant"),
			SearchCode:    q.Get("search_code"),
			SearchVehicle: q.Get("search_vehicle"),
		},
	}
	switch q.Get("is_broken") {
	case "true":
		v := true
		req.Filters.IsBroken = &v
	case "false":
		v := false
		req.Filters.IsBroken = &v
	}
	return req
}
