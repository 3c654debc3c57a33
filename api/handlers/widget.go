package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/luminachat/chat-widget-api/chat"
	"github.com/luminachat/chat-widget-api/config"
)

// Frame sizes the embedding parent should adopt when the widget opens or
// closes.
const (
	openWidth    = 550
	openHeight   = 800
	closedWidth  = 80
	closedHeight = 80
)

// Widget exported for testing purposes
type Widget struct {
	Registry *chat.Registry
}

type registerSessionRequest struct {
	BotID      string `json:"botId"`
	InstanceID string `json:"instanceId"`
}

// RegisterSessionHandler is the host-bridge entry point: the embedding page
// posts the chatbot identifier once per widget instance. Repeated posts for
// the same instance return the existing session without a second profile
// fetch.
func (h Widget) RegisterSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req registerSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.BotID == "" || req.InstanceID == "" {
		config.ErrorStatus("botId and instanceId are required", http.StatusBadRequest, w, errors.New("missing identifier"))
		return
	}

	ctrl, created := h.Registry.Register(req.InstanceID, req.BotID)
	if created {
		// an absent profile is an empty state, not a failure: the widget
		// keeps rendering its loading view
		_ = ctrl.LoadProfile(r.Context())
	}

	writeSessionState(w, ctrl)
}

// SessionStateHandler returns a snapshot of the session for rendering.
func (h Widget) SessionStateHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.Registry.Get(mux.Vars(r)["session_id"])
	if !ok {
		config.ErrorStatus("session not found", http.StatusNotFound, w, errors.New("unknown session id"))
		return
	}
	writeSessionState(w, ctrl)
}

// SubmitMessageHandler accepts a user submission: JSON with a content field,
// or multipart form data with an image file. The form is considered reset
// regardless of outcome; an empty submission is a no-op.
func (h Widget) SubmitMessageHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.Registry.Get(mux.Vars(r)["session_id"])
	if !ok {
		config.ErrorStatus("session not found", http.StatusNotFound, w, errors.New("unknown session id"))
		return
	}

	var in chat.SubmitInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
			return
		}
		in.Content = r.FormValue("content")
		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close()
			in.File = &chat.FileUpload{Name: header.Filename, Reader: file}
		}
	} else {
		var body struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
		in.Content = body.Content
	}

	if err := ctrl.Submit(r.Context(), in); err != nil {
		switch {
		case errors.Is(err, chat.ErrSubmissionInFlight):
			config.ErrorStatus("a submission is already in flight", http.StatusTooManyRequests, w, err)
		case errors.Is(err, chat.ErrUploadFailed):
			config.ErrorStatus("failed to upload file", http.StatusBadGateway, w, err)
		case errors.Is(err, chat.ErrAssistantUnavailable):
			config.ErrorStatus("assistant backend unavailable", http.StatusBadGateway, w, err)
		case errors.Is(err, chat.ErrSessionClosed):
			config.ErrorStatus("session closed", http.StatusGone, w, err)
		default:
			config.ErrorStatus("failed to submit message", http.StatusInternalServerError, w, err)
		}
		return
	}

	writeSessionState(w, ctrl)
}

type toggleRequest struct {
	Open bool `json:"open"`
}

// FrameSize is posted back to the embedding parent so it can resize the
// widget's viewport.
type FrameSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ToggleHandler reports the frame size for the widget's open/closed state.
func (h Widget) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.Registry.Get(mux.Vars(r)["session_id"]); !ok {
		config.ErrorStatus("session not found", http.StatusNotFound, w, errors.New("unknown session id"))
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	size := FrameSize{Width: closedWidth, Height: closedHeight}
	if req.Open {
		size = FrameSize{Width: openWidth, Height: openHeight}
	}
	b, err := json.Marshal(size)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// EndSessionHandler tears a session down when the widget instance goes away.
func (h Widget) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	h.Registry.Remove(sessionID)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"ended": "%s"}`, sessionID)))
}

func writeSessionState(w http.ResponseWriter, ctrl *chat.Controller) {
	b, err := json.Marshal(ctrl.State())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
