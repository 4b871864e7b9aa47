package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/query"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
	logpkg "github.com/kailas-cloud/storefront/internal/logger"
	cataloguc "github.com/kailas-cloud/storefront/internal/usecase/catalog"
	"github.com/kailas-cloud/storefront/internal/usecase/panel"
	"github.com/kailas-cloud/storefront/internal/usecase/querystate"
)

const (
	sessionWriteTimeout = 10 * time.Second
	sessionReadLimit    = 64 << 10
	sessionOutbox       = 64
)

// Client message types.
const (
	msgFocus  = "focus"
	msgBlur   = "blur"
	msgInput  = "input"
	msgSubmit = "submit"
	msgSelect = "select"
	msgReset  = "reset"
	msgRefine = "refine"
	msgPage   = "page"
)

// Server message types.
const (
	msgPanel    = "panel"
	msgState    = "state"
	msgResults  = "results"
	msgNavigate = "navigate"
	msgError    = "error"
)

// ClientMessage is an event sent by the browser over the panel session.
type ClientMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Source   string `json:"source,omitempty"`
	Index    int    `json:"index,omitempty"`
	Category string `json:"category,omitempty"`
	Page     int    `json:"page,omitempty"`
}

// ServerMessage is pushed to the browser over the panel session.
type ServerMessage struct {
	Type    string             `json:"type"`
	Panel   *panel.View        `json:"panel,omitempty"`
	State   *query.State       `json:"state,omitempty"`
	Results *cataloguc.Results `json:"results,omitempty"`
	URL     string             `json:"url,omitempty"`
	Message string             `json:"message,omitempty"`
}

// session is one websocket connection and the panel mounted on it.
type session struct {
	conn   *websocket.Conn
	out    chan ServerMessage
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

func newSession(conn *websocket.Conn, logger *zap.Logger) *session {
	return &session{
		conn:   conn,
		out:    make(chan ServerMessage, sessionOutbox),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Render implements panel.Sink.
func (s *session) Render(v panel.View) {
	s.send(ServerMessage{Type: msgPanel, Panel: &v})
}

// Navigate implements panel.Sink.
func (s *session) Navigate(url string) {
	s.send(ServerMessage{Type: msgNavigate, URL: url})
}

func (s *session) send(m ServerMessage) {
	select {
	case s.out <- m:
	case <-s.done:
	}
}

// stop ends outbound delivery. Pending sends return immediately afterwards.
func (s *session) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *session) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case m := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(sessionWriteTimeout))
			if err := s.conn.WriteJSON(m); err != nil {
				s.logger.Debug("panel session write failed", zap.Error(err))
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// AutocompleteSession handles GET /autocomplete/ws. One connection is one
// mounted panel; the connection closing unmounts it.
func (s *Server) AutocompleteSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("panel session upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(sessionReadLimit)
	// The server's request read deadline survives the hijack.
	_ = conn.SetReadDeadline(time.Time{})

	q := r.URL.Query()
	scope := q.Get("client")
	if scope == "" {
		scope = uuid.NewString()
	}
	logger := logpkg.FromContext(r.Context()).With(zap.String("session", scope))

	sess := newSession(conn, logger)
	sess.wg.Add(1)
	go sess.writeLoop()

	ctx, cancel := context.WithCancel(context.Background())
	store := querystate.New(query.State{Text: q.Get("q"), Category: q.Get("category")})
	changes := make(chan query.State, 1)
	unsubscribe := store.Subscribe(func(st query.State) {
		sess.send(ServerMessage{Type: msgState, State: &st})
		offerLatest(changes, st)
	})

	sess.wg.Add(1)
	go s.resultsLoop(ctx, sess, changes)

	ctrl := panel.New(s.autocomplete, store, s.history, sess, panel.Config{
		Scope:    scope,
		Debounce: s.sessions.Debounce,
		Logger:   logger,
	})

	initial := store.Get()
	sess.send(ServerMessage{Type: msgState, State: &initial})
	offerLatest(changes, initial)

	logger.Debug("panel session opened")
	s.readLoop(sess, ctrl)

	sess.stop()
	ctrl.Unmount()
	unsubscribe()
	cancel()
	sess.wg.Wait()
	_ = conn.Close()
	logger.Debug("panel session closed")
}

func (s *Server) readLoop(sess *session, ctrl *panel.Controller) {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.Debug("panel session read failed", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.send(ServerMessage{Type: msgError, Message: "invalid message"})
			continue
		}
		if err := dispatch(ctrl, msg); err != nil {
			sess.logger.Debug("panel event rejected", zap.String("type", msg.Type), zap.Error(err))
			sess.send(ServerMessage{Type: msgError, Message: safeDomainMessage(err)})
		}
	}
}

func dispatch(ctrl *panel.Controller, msg ClientMessage) error {
	switch msg.Type {
	case msgFocus:
		return ctrl.Focus()
	case msgBlur:
		return ctrl.Blur()
	case msgInput:
		if len(msg.Text) > cataloguc.MaxQueryLength {
			return fmt.Errorf("%w: query too long", domain.ErrInvalidQuery)
		}
		return ctrl.Input(msg.Text)
	case msgSubmit:
		return ctrl.Submit()
	case msgSelect:
		return ctrl.Select(suggestion.SourceID(msg.Source), msg.Index)
	case msgReset:
		return ctrl.Reset()
	case msgRefine:
		return ctrl.Refine(msg.Category)
	case msgPage:
		return ctrl.SetPage(msg.Page)
	default:
		return fmt.Errorf("%w: unknown message type %q", domain.ErrInvalidQuery, msg.Type)
	}
}

// resultsLoop runs the main result list search for the latest committed state.
func (s *Server) resultsLoop(ctx context.Context, sess *session, changes <-chan query.State) {
	defer sess.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-changes:
			res, err := s.catalog.Search(ctx, st)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				sess.logger.Warn("result list search failed", zap.Error(err))
				sess.send(ServerMessage{Type: msgError, Message: safeDomainMessage(err)})
				continue
			}
			sess.send(ServerMessage{Type: msgResults, Results: &res})
		}
	}
}

// offerLatest replaces any unread state in ch with st.
func offerLatest(ch chan query.State, st query.State) {
	for {
		select {
		case ch <- st:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
