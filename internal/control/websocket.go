package control

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/swarmguard/judge-engine/internal/model"
)

// upgrader matches the original's check_origin override: backends connect
// from trusted infrastructure, not a browser, so origin is not checked.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeJudgeSocket upgrades the request to a WebSocket and serves it as one
// backend connection: every inbound JSON message is a submission, every
// outbound message is an incremental report, mirroring the original's
// JudgeWebSocketClient.on_message/reporter pair.
func (s *Server) ServeJudgeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(payload []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Warn("websocket write failed", "error", err)
		}
	}

	reporter := func(chalID int64, task string, tr *model.TestDataResult, res *model.Result) {
		payload, err := marshalReport(chalID, task, tr, res)
		if err != nil {
			slog.Error("failed to marshal report", "chal_id", chalID, "task", task, "error", err)
			return
		}
		send(payload)
	}

	slog.Info("backend connected", "remote", r.RemoteAddr)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			slog.Info("backend disconnected", "remote", r.RemoteAddr, "error", err)
			return
		}

		var obj map[string]any
		if err := json.Unmarshal(msg, &obj); err != nil {
			slog.Warn("discarding malformed submission", "error", err)
			continue
		}

		if err := s.Submit(obj, reporter, nil); err != nil {
			slog.Error("submission rejected", "error", err)
			chalID, _ := obj["chal_id"].(float64)
			failed := model.NewResult(int64(chalID))
			failed.Total.Status = model.StatusPtr(model.InternalError)
			failed.Total.IEMessage = err.Error()
			failed.Total.MessageType = model.MessageText
			payload, _ := marshalReport(int64(chalID), "summary", nil, failed)
			send(payload)
		}
	}
}
