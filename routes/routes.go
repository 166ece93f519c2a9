package routes

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anirudh-svg/Peer-Lift/controllers"
	"github.com/anirudh-svg/Peer-Lift/controllers/admins"
	"github.com/anirudh-svg/Peer-Lift/controllers/auth"
	"github.com/anirudh-svg/Peer-Lift/controllers/counselors"
	"github.com/anirudh-svg/Peer-Lift/middleware"
	"github.com/anirudh-svg/Peer-Lift/tasks"
	"github.com/anirudh-svg/Peer-Lift/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// InitRouter builds the HTTP routing table. The analyzer is handed to the
// chat controller so message sends can enqueue classification.
func InitRouter(analyzer *tasks.Analyzer) *mux.Router {
	controllers.InitChat(analyzer)

	r := mux.NewRouter()

	// CORS via gorilla/handlers; origins configurable for deployed frontends
	allowedOrigins := strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",")
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "" {
		allowedOrigins = []string{"*"}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(allowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-ID", "X-Anonymous-Session"}),
		)(next)
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "ok"})
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// Preflight catch-all so CORS middleware can answer OPTIONS
	v1.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Brute-force protection on the credential surface
	authLimiter := middleware.NewIPRateLimiter(envInt("RATE_AUTH_MAX", 10), time.Minute)
	// Looser limit for the anonymous chat surface, which has no account identity
	anonLimiter := middleware.NewIPRateLimiter(envInt("RATE_ANON_MAX", 60), time.Minute)

	// Public
	v1.Handle("/register", authLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods("POST")
	v1.Handle("/login", authLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods("POST")
	v1.Handle("/refresh", authLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods("POST")
	v1.HandleFunc("/logout", auth.LogoutHandler).Methods("POST")
	v1.HandleFunc("/counselors/online", controllers.OnlineCounselorCountHandler).Methods("GET")

	// Anonymous visitor surface, keyed by the X-Anonymous-Session header
	v1.Handle("/anonymous/session", anonLimiter.Middleware(http.HandlerFunc(controllers.CreateAnonymousSessionHandler))).Methods("POST")

	chat := v1.PathPrefix("/chat").Subrouter()
	chat.Use(anonLimiter.Middleware)
	chat.HandleFunc("/sessions", controllers.StartChatSessionHandler).Methods("POST")
	chat.HandleFunc("/sessions/current", controllers.GetCurrentSessionHandler).Methods("GET")
	chat.HandleFunc("/sessions/{id:[0-9]+}/messages", controllers.SendMessageHandler).Methods("POST")
	chat.HandleFunc("/sessions/{id:[0-9]+}/messages", controllers.GetMessagesHandler).Methods("GET")
	chat.HandleFunc("/sessions/{id:[0-9]+}/end", controllers.EndChatSessionHandler).Methods("POST")

	// Counselor surface
	counselor := v1.PathPrefix("/counselor").Subrouter()
	counselor.Use(middleware.AuthMiddleware)
	counselor.HandleFunc("/profile", counselors.CreateProfileHandler).Methods("POST")
	counselor.HandleFunc("/profile", counselors.GetProfileHandler).Methods("GET")
	counselor.HandleFunc("/status", counselors.UpdateOnlineStatusHandler).Methods("PUT")
	counselor.HandleFunc("/profile/document", counselors.UploadVerificationDocumentHandler).Methods("POST")
	counselor.HandleFunc("/sessions/waiting", counselors.WaitingSessionsHandler).Methods("GET")
	counselor.HandleFunc("/sessions", counselors.MySessionsHandler).Methods("GET")
	counselor.HandleFunc("/sessions/{id:[0-9]+}/claim", counselors.ClaimSessionHandler).Methods("POST")
	counselor.HandleFunc("/sessions/{id:[0-9]+}/messages", counselors.SessionMessagesHandler).Methods("GET")
	counselor.HandleFunc("/sessions/{id:[0-9]+}/messages", counselors.SendCounselorMessageHandler).Methods("POST")
	counselor.HandleFunc("/sessions/{id:[0-9]+}/end", counselors.EndSessionHandler).Methods("POST")

	// Admin surface. Bootstrap is public (guarded by the bootstrap key and
	// pending status); everything else requires an approved admin token.
	v1.Handle("/admin/bootstrap", authLimiter.Middleware(http.HandlerFunc(admins.BootstrapHandler))).Methods("POST")

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuthMiddleware)
	admin.HandleFunc("/admins/pending", admins.PendingAdminsHandler).Methods("GET")
	admin.HandleFunc("/admins/{id:[0-9]+}/approve", admins.ApproveAdminHandler).Methods("PUT")
	admin.HandleFunc("/counselors", admins.ListCounselorsHandler).Methods("GET")
	admin.HandleFunc("/counselors/{id:[0-9]+}/document", admins.VerificationDocumentURLHandler).Methods("GET")
	admin.HandleFunc("/counselors/{id:[0-9]+}/verify", admins.VerifyCounselorHandler).Methods("PUT")
	admin.HandleFunc("/counselors/{id:[0-9]+}", admins.RejectCounselorHandler).Methods("DELETE")
	admin.HandleFunc("/analytics", admins.AnalyticsHandler).Methods("GET")

	return r
}
