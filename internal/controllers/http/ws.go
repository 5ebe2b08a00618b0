package httpctrl

import (
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// feedMessage is pushed on /v1/ws whenever the result or its error changes.
type feedMessage struct {
	ProjectID string               `json:"project_id"`
	Result    *coldroom.LoadResult `json:"result,omitempty"`
	Error     *errorDTO            `json:"error,omitempty"`
}

func (s *Server) feed() feedMessage {
	msg := feedMessage{ProjectID: s.svc.ProjectID()}
	r, err := s.svc.Result()
	if err != nil {
		e := errorDTO{Error: err.Error()}
		var fe *coldroom.FieldError
		if errors.As(err, &fe) {
			e.Field = fe.Field
		}
		msg.Error = &e
		return msg
	}
	msg.Result = &r
	return msg
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Drain the read side so close frames are seen.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := s.PushInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last feedMessage
	first := true
	for {
		cur := s.feed()
		if first || !reflect.DeepEqual(cur, last) {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(cur); err != nil {
				log.WithField("error", err).Debug("websocket write")
				return
			}
			last = cur
			first = false
		}

		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
