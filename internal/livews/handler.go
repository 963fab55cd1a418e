package livews

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	ws "nhooyr.io/websocket"

	"github.com/hire-genai/Hire-genAi-sub000/internal/auth"
	"github.com/hire-genai/Hire-genAi-sub000/internal/store"
)

type Server struct {
	Store       *store.Store
	Reg         *Registry
	TokenSecret string
	TokenSkewS  int
}

func NewServer(st *store.Store, reg *Registry, tokenSecret string, tokenSkewS int) *Server {
	return &Server{Store: st, Reg: reg, TokenSecret: tokenSecret, TokenSkewS: tokenSkewS}
}

// HandleObserverWS upgrades an observer connection for one session,
// replays the stored event backlog, then streams live events until the
// observer goes away. Observers are read-only; inbound frames are
// drained and dropped. All conn writes happen on a dedicated writer
// goroutine fed by the observer's queue, never on the publisher.
func (s *Server) HandleObserverWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	if s.Store.GetSession(sessionID) == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		authz := r.Header.Get("Authorization")
		token = strings.TrimPrefix(authz, "Bearer ")
	}
	if s.TokenSecret == "" {
		http.Error(w, "observer auth not configured", http.StatusUnauthorized)
		return
	}
	if _, _, err := auth.ValidateChannelToken(s.TokenSecret, token, sessionID, time.Now(), s.TokenSkewS); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[livews] accept: %v", err)
		return
	}
	// Snapshot the backlog before registering: an event landing in the
	// gap is missed rather than duplicated, and the truncation marker
	// already tells the UI the feed can have holes.
	backlog := s.Reg.backlog(sessionID)
	o := s.Reg.Add(sessionID, c)
	metricObservers.Inc()
	defer func() {
		s.Reg.Remove(sessionID, o)
		metricObservers.Dec()
		_ = c.Close(ws.StatusNormalClosure, "done")
	}()

	ctx := r.Context()
	go func() {
		for _, evt := range backlog {
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if writeFrame(ctx, c, data) != nil {
				return
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-o.send:
				if writeFrame(ctx, c, data) != nil {
					_ = c.Close(ws.StatusInternalError, "write failed")
					return
				}
			}
		}
	}()

	for {
		if _, _, err := c.Read(ctx); err != nil {
			return
		}
	}
}

func writeFrame(ctx context.Context, c *ws.Conn, data []byte) error {
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.Write(wctx, ws.MessageText, data)
}
