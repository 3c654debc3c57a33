package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/api/handlers"
	"github.com/luminachat/chat-widget-api/api/scheduler"
	"github.com/luminachat/chat-widget-api/config"
)

func main() {
	// local development convenience; deployments set real env vars
	_ = godotenv.Load()

	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, broker and router
		log.Fatal(err)
	}

	janitor := scheduler.NewScheduler(a.Registry)
	janitor.Start()
	defer janitor.Stop()

	zap.S().Infow("chat-widget-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
