package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/api"
	"github.com/luminachat/chat-widget-api/assistant"
	"github.com/luminachat/chat-widget-api/chat"
	"github.com/luminachat/chat-widget-api/config"
	"github.com/luminachat/chat-widget-api/databases"
	"github.com/luminachat/chat-widget-api/mailer"
	"github.com/luminachat/chat-widget-api/models"
	"github.com/luminachat/chat-widget-api/realtime"
	"github.com/luminachat/chat-widget-api/uploads"
)

// App stores the router, db connection and session registry, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Registry *chat.Registry
	Broker   realtime.Broker
	Hub      *WidgetHub
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for the agent-facing routes
	m := api.MiddlewareDB{DB: databases.NewAgentDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	chatbotDB := databases.NewChatbotDatabase(a.dbHelper)
	messageDB := databases.NewChatMessageDatabase(a.dbHelper)

	cb := Chatbot{DB: chatbotDB}
	wdg := Widget{Registry: a.Registry}
	ag := Agent{Broker: a.Broker, MDB: messageDB}
	billing := Billing{DB: chatbotDB}
	cloudinaryHandler := CloudinaryHandler{}

	r := mux.NewRouter()

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/chatbot/{chatbot_id}", http.HandlerFunc(cb.ChatbotByIDHandler)).Methods("GET")
	apiCreate.Handle("/chatbot/{chatbot_id}/checkout", http.HandlerFunc(billing.CreateCheckoutSessionHandler)).Methods("POST")

	apiCreate.Handle("/widget/session", http.HandlerFunc(wdg.RegisterSessionHandler)).Methods("POST")
	apiCreate.Handle("/session/{session_id}", http.HandlerFunc(wdg.SessionStateHandler)).Methods("GET")
	apiCreate.Handle("/session/{session_id}", http.HandlerFunc(wdg.EndSessionHandler)).Methods("DELETE")
	// submissions wait on the upload and assistant backends
	apiCreate.Handle("/session/{session_id}/messages", api.TimeoutMiddleware(45*time.Second)(http.HandlerFunc(wdg.SubmitMessageHandler))).Methods("POST")
	apiCreate.Handle("/session/{session_id}/toggle", http.HandlerFunc(wdg.ToggleHandler)).Methods("POST")

	apiCreate.Handle("/agent/rooms/{room_id}/messages", api.Middleware(http.HandlerFunc(ag.PostRoomMessageHandler))).Methods("POST")
	apiCreate.Handle("/agent/rooms/{room_id}/join", http.HandlerFunc(ag.JoinRoomHandler)).Methods("GET")
	apiCreate.Handle("/agent/sessions/{session_id}/transcript", api.Middleware(http.HandlerFunc(ag.TranscriptHandler))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/success", http.HandlerFunc(billing.HandleSuccessRedirect)).Methods("GET")
	apiCreate.Handle("/cancel", http.HandlerFunc(billing.HandleCancelRedirect)).Methods("GET")

	// live updates for open widgets
	r.HandleFunc("/ws/widget", a.Hub.HandleWidgetSocket)

	// agent dashboards connect over socket.io
	r.Handle("/socket.io/", InitializeSocketIO(a.Broker))

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("chat-widget-api has connected to the database")

	// initialize stripe
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return fmt.Errorf("stripe secret key is not set")
	}
	stripe.Key = stripeKey

	// broker: redis when configured so live messages cross instances,
	// in-process otherwise
	if a.Config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
		a.Broker = realtime.NewRedisBroker(rdb)
		zap.S().Infow("using redis realtime broker", "addr", a.Config.RedisAddr)
	} else {
		a.Broker = realtime.NewMemoryBroker()
		zap.S().Warn("REDIS_ADDR not set, live messages stay on this instance")
	}

	a.Hub = NewWidgetHub()

	deps := chat.Deps{
		Profiles:    chatbotProfileFetcher{DB: databases.NewChatbotDatabase(a.dbHelper)},
		Assistant:   assistant.New(a.Config.AssistantURL),
		Broker:      a.Broker,
		Transcripts: transcriptWriter{DB: databases.NewChatMessageDatabase(a.dbHelper)},
		Notifier:    mailer.New(a.Config.BaseURL),
		Push:        a.Hub,
	}
	if os.Getenv("CLOUDINARY_CLOUD_NAME") != "" {
		uploader, err := uploads.NewCloudinaryUploader()
		if err != nil {
			zap.S().With(err).Error("failed to configure cloudinary")
			return err
		}
		deps.Uploader = uploader
	} else {
		// uploads fail recoverably; text chat keeps working
		zap.S().Warn("CLOUDINARY_CLOUD_NAME not set, file uploads disabled")
	}
	a.Registry = chat.NewRegistry(deps)

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
