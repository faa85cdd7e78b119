package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
	"github.com/pavelanni/aptitude/internal/timer"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type statePayload struct {
	Timers []timer.State `json:"timers"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// handleSocket streams a page's timer ticks and notices until the client goes away.
func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := sess.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("ws write error", "session", sess.ID(), "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				msg, keep := h.outbound(r.Context(), sess.Exam().Layout, ev)
				if !keep {
					continue
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: statePayload{Timers: sess.Timers()}}

	for {
		var inbound outboundMessage[any]
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		select {
		case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}:
		default:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// outbound localizes an event for the client. Ticks for a section without a visible
// clock are dropped.
func (h *Handler) outbound(ctx context.Context, layout model.Layout, ev practice.Event) (outboundMessage[any], bool) {
	if ev.Type == practice.EventTick && ev.Timer != nil && !layout.Has(model.DisplayMount(ev.Timer.Section)) {
		return outboundMessage[any]{}, false
	}
	if !layout.Has(model.MountNotice) {
		ev.Notice = nil
	}
	if ev.Notice != nil {
		n := *ev.Notice
		switch ev.Type {
		case practice.EventExpired:
			n.Message = appI18n.Td(ctx, "TimeUp", map[string]any{
				"Section": appI18n.Title(ctx, "Section", string(ev.Timer.Section)),
			})
		case practice.EventGraded:
			n.Message = appI18n.T(ctx, "GradingComplete")
		case practice.EventCleared:
			n.Message = appI18n.T(ctx, "AnswersCleared")
		}
		ev.Notice = &n
	}
	return outboundMessage[any]{Type: string(ev.Type), Payload: ev}, true
}
