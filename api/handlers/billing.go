package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/luminachat/chat-widget-api/config"
	"github.com/luminachat/chat-widget-api/databases"
)

// Billing exported for testing purposes
type Billing struct {
	DB databases.ChatbotDatabase
}

// CreateCheckoutSessionHandler starts a Stripe checkout to upgrade a
// chatbot's plan. The price is configured per deployment.
func (b Billing) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	chatbotID := mux.Vars(r)["chatbot_id"]

	dbResp, err := b.DB.FindOne(r.Context(), bson.M{"_id": chatbotID})
	if err != nil {
		config.ErrorStatus("failed to get chatbot by ID", http.StatusInternalServerError, w, err)
		return
	}
	if dbResp == nil {
		config.ErrorStatus("chatbot not found", http.StatusNotFound, w, fmt.Errorf("no chatbot with id %s", chatbotID))
		return
	}

	priceID := os.Getenv("STRIPE_PRICE_ID")
	if priceID == "" {
		config.ErrorStatus("stripe price is not configured", http.StatusInternalServerError, w, errors.New("STRIPE_PRICE_ID not set"))
		return
	}
	baseURL := os.Getenv("BASE_URL")

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(chatbotID),
		SuccessURL:        stripe.String(baseURL + "/api/v1/success"),
		CancelURL:         stripe.String(baseURL + "/api/v1/cancel"),
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	response := map[string]string{"url": s.URL}
	responseBody, err := json.Marshal(response)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(responseBody)
}

// HandleSuccessRedirect lands the owner after a completed checkout
func (b Billing) HandleSuccessRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "checkout complete, plan upgrade processing"}`))
}

// HandleCancelRedirect lands the owner after an abandoned checkout
func (b Billing) HandleCancelRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "checkout cancelled"}`))
}
