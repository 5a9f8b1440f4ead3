package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns int
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Index int `json:"index"`
}

type restartPayload struct {
	SameQuestions bool `json:"sameQuestions"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives the current quiz
// session. Every state change of the attached session is pushed as a
// "state" message; reaching the end additionally pushes "finished".
// When the last connection goes away the current session is abandoned.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	h.connected()
	defer h.disconnected()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var forwarders sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	sendError := func(message string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
	}

	var (
		attached *app.Controller
		detach   = func() {}
	)
	attach := func(ctrl *app.Controller) {
		detach()
		updates, cancel := ctrl.Subscribe()
		attached, detach = ctrl, cancel
		forwarders.Add(1)
		go func() {
			defer forwarders.Done()
			forward(ctrl, updates, send, closeSignals)
		}()
	}

	if current, ok := h.service.Current(); ok {
		attach(current)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var settings domain.SessionSettings
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &settings); err != nil {
					sendError("invalid settings payload")
					continue
				}
			} else {
				settings = h.service.Settings()
			}
			ctrl, err := h.service.StartQuiz(r.Context(), settings)
			if errors.Is(err, domain.ErrSuperseded) {
				continue
			}
			if err != nil {
				sendError(app.UserMessage(err))
				continue
			}
			attach(ctrl)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendError("invalid answer payload")
				continue
			}
			if attached != nil {
				attached.SelectAnswer(payload.Index)
			}
		case "next":
			if attached != nil {
				attached.Advance()
			}
		case "restart":
			var payload restartPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					sendError("invalid restart payload")
					continue
				}
			}
			if attached != nil {
				attached.Restart(payload.SameQuestions)
			}
		case "abandon":
			detach()
			detach, attached = func() {}, nil
			h.service.Abandon()
		default:
			sendError("unsupported message type")
		}
	}

	detach()
	close(closeSignals)
	forwarders.Wait()
	close(send)
	<-writerDone
}

func (h *WSHandler) connected() {
	h.mu.Lock()
	h.conns++
	h.mu.Unlock()
}

// disconnected abandons the current session once nobody is left to play it.
// The lock is held across Abandon so a new connection cannot attach to the
// session being torn down.
func (h *WSHandler) disconnected() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns--
	if h.conns == 0 {
		h.service.Abandon()
	}
}

// forward relays snapshots of one session until its subscription closes.
func forward(ctrl *app.Controller, updates <-chan domain.SessionSnapshot, send chan<- outboundMessage[any], closeSignals <-chan struct{}) {
	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if !relay(send, closeSignals, outboundMessage[any]{Type: "state", Payload: snapshot}) {
				return
			}
			if snapshot.Phase == domain.PhaseFinished {
				if !relay(send, closeSignals, outboundMessage[any]{Type: "finished", Payload: ctrl.Result()}) {
					return
				}
			}
		case <-closeSignals:
			return
		}
	}
}

func relay(send chan<- outboundMessage[any], closeSignals <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-closeSignals:
		return false
	}
}
