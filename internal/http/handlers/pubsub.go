package handlers

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/Valikazar/football-magager-bot/internal/inngest"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
)

// pushMessage is the envelope of a Pub/Sub push delivery.
type pushMessage struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data string `json:"data"`
	} `json:"message"`
}

func readPush(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return nil, false
	}
	log.Debug("Received push message", "body", string(bodyBytes))

	var msg pushMessage
	if err := sonic.Unmarshal(bodyBytes, &msg); err != nil {
		log.Error("Failed to unmarshal wrapper JSON", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return nil, false
	}
	rawData, err := base64.StdEncoding.DecodeString(msg.Message.Data)
	if err != nil {
		log.Error("Failed to decode base64 data", "error", err)
		http.Error(w, "Invalid base64 data", http.StatusBadRequest)
		return nil, false
	}
	return rawData, true
}

// MatchFinishedHandler receives match-finished events and starts the summary workflow.
func MatchFinishedHandler(inngestClient inngest.InngestClient, pubsubClient pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawData, ok := readPush(w, r)
		if !ok {
			return
		}
		var ev pubsub.MatchFinished
		if err := pubsubClient.ProcessMessage(rawData, &ev); err != nil {
			log.Error("Failed to decode match-finished event", "error", err)
			http.Error(w, "Invalid event", http.StatusBadRequest)
			return
		}
		if err := inngestClient.SendMatchFinished(r.Context(), ev); err != nil {
			log.Error("Failed to start match summary", "match", ev.MatchID, "error", err)
			http.Error(w, "Failed to start match summary", http.StatusInternalServerError)
			return
		}
		log.Info("Match summary scheduled", "match", ev.MatchID, "chat", ev.Key())
		w.Write([]byte("OK"))
	}
}

// TeamsCommittedHandler acknowledges teams-committed events.
func TeamsCommittedHandler(pubsubClient pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawData, ok := readPush(w, r)
		if !ok {
			return
		}
		var ev pubsub.TeamsCommitted
		if err := pubsubClient.ProcessMessage(rawData, &ev); err != nil {
			log.Error("Failed to decode teams-committed event", "error", err)
			http.Error(w, "Invalid event", http.StatusBadRequest)
			return
		}
		log.Info("Teams committed", "channel", ev.ChannelID, "thread", ev.ThreadID, "team1", ev.Team1, "team2", ev.Team2, "variant", ev.VariantID)
		w.Write([]byte("OK"))
	}
}
