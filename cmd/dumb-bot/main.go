package main

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"hexa-arcade/internal/config"
	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/games/duel"
	"hexa-arcade/internal/games/tictactoe"
	"hexa-arcade/internal/logging"
	"hexa-arcade/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type stateView struct {
	Board []string `json:"board"`
}

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}
	if cfg.SessionID == "" {
		log.Fatal().Msg("SESSION_ID is required")
	}

	url := strings.TrimSuffix(cfg.WSURL, "/") + "/" + cfg.SessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", url).Msg("dial failed")
	}
	defer conn.Close()

	if err := conn.WriteJSON(ws.JoinMessage{Type: "join", ParticipantID: cfg.ParticipantID, Name: cfg.ParticipantName}); err != nil {
		log.Fatal().Err(err).Msg("join failed")
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastToken uint64
	seq := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Msg("connection closed")
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &base); err != nil {
			continue
		}
		switch base.Type {
		case "join_result", "action_result":
			log.Debug().RawJSON("msg", data).Msg("server reply")
			continue
		case "state":
		default:
			continue
		}
		var msg ws.StateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		snap := msg.Snapshot
		if snap.State == engine.StateOver {
			log.Info().Str("session_id", snap.SessionID).Msg("session over")
			return
		}
		if snap.State != engine.StateActive || snap.Current == nil || snap.Current.ID != cfg.ParticipantID || snap.TurnToken == lastToken {
			continue
		}
		move, ok := decide(rnd, snap)
		if !ok {
			continue
		}
		lastToken = snap.TurnToken
		seq++
		req := ws.ActionMessage{Type: "action", RequestID: "bot-" + strconv.Itoa(seq), Move: move, TurnToken: snap.TurnToken}
		if err := conn.WriteJSON(req); err != nil {
			log.Error().Err(err).Msg("send action failed")
			return
		}
	}
}

func decide(rnd *rand.Rand, snap engine.Snapshot) (engine.Move, bool) {
	switch snap.Kind {
	case tictactoe.Kind:
		raw, _ := json.Marshal(snap.View)
		var v stateView
		if err := json.Unmarshal(raw, &v); err != nil {
			return engine.Move{}, false
		}
		var free []int
		for i, c := range v.Board {
			if c == "." {
				free = append(free, i)
			}
		}
		if len(free) == 0 {
			return engine.Move{}, false
		}
		return engine.Move{Type: tictactoe.MoveMark, Index: free[rnd.Intn(len(free))]}, true
	case duel.Kind:
		moves := []string{duel.MovePunch, duel.MoveKick, duel.MoveDefend}
		return engine.Move{Type: moves[rnd.Intn(len(moves))]}, true
	default:
		return engine.Move{}, false
	}
}
