package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/hotseat-chess/internal/hotseat"
	"github.com/park285/hotseat-chess/internal/obslog"
	"github.com/park285/hotseat-chess/pkg/chessdto"
)

const wsPingInterval = 30 * time.Second

// handleWS streams game events and accepts commands on the same socket. The
// first frame is always the current state.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v, err := s.mgr.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("game_id", id), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events, unsubscribe := s.mgr.Feed().Subscribe(id)
	defer unsubscribe()
	obslog.L().Info("ws_connect", zap.String("game_id", id))
	defer obslog.L().Info("ws_disconnect", zap.String("game_id", id))

	if err := wsjson.Write(ctx, conn, chessdto.Event{Type: chessdto.EventState, State: hotseat.ToDTO(v)}); err != nil {
		return
	}
	go s.readCommands(ctx, cancel, conn, id)

	t := time.NewTicker(wsPingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "bye")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, chessdto.Event{Type: ev.Type, State: hotseat.ToDTO(ev.View)}); err != nil {
				return
			}
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		}
	}
}

// readCommands dispatches client commands. State changes reach the client
// through the feed; selections, reads and errors are answered directly.
func (s *Server) readCommands(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, id string) {
	defer cancel()
	for {
		var in chessdto.Command
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return
		}
		cmd := toCommand(id, in)
		res, err := s.mgr.Dispatch(ctx, cmd)
		var reply *chessdto.Event
		switch {
		case err != nil:
			de := hotseat.ToDomainError(err, s.mgr.Messages())
			reply = &chessdto.Event{Type: chessdto.EventError, Error: &de}
		case res.Selection != nil:
			sel := hotseat.SelectionDTO(res.Selection)
			sel.Message = res.View.Message
			reply = &chessdto.Event{Type: chessdto.EventSelection, Selection: sel}
		case cmd.Kind == hotseat.CmdGet:
			reply = &chessdto.Event{Type: chessdto.EventState, State: hotseat.ToDTO(res.View)}
		}
		if reply == nil {
			continue
		}
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			return
		}
	}
}

func toCommand(id string, in chessdto.Command) hotseat.Command {
	return hotseat.Command{
		Kind:    hotseat.CommandKind(strings.TrimSpace(in.Type)),
		GameID:  id,
		Square:  in.Square,
		Enabled: in.Enabled,
		Move: hotseat.MoveInput{
			From:      strings.TrimSpace(in.From),
			To:        strings.TrimSpace(in.To),
			Promotion: strings.TrimSpace(in.Promotion),
			UCI:       strings.TrimSpace(in.Move),
		},
	}
}
