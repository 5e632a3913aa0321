package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/draw"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/processor"
	"github.com/Valikazar/football-magager-bot/internal/registration"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	"github.com/Valikazar/football-magager-bot/internal/voting"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/slack-go/slack"
)

// Services bundles the lifecycle components driven by the handlers.
type Services struct {
	Registration *registration.Manager
	Draw         *draw.Service
	Voting       *voting.Engine
	Processor    *processor.Processor
	Drafts       draft.Store
	Roster       roster.Store
	Settings     settings.Store
	Auth         auth.Authorizer
	Notifier     notifier.Notifier
}

// StatusFor maps an operation error to the HTTP status reported to the caller.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.IsAny(err, apperrors.ErrUnauthorized, apperrors.ErrNotYourTurn, apperrors.ErrNotYourAction):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNoTeamData):
		return http.StatusNotFound
	case errors.IsAny(err, apperrors.ErrStaleState, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown in chat for a failed operation.
func userMessage(err error) string {
	if apperrors.IsRejection(err) {
		return err.Error()
	}
	return "Something went wrong, please try again."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigStd.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Operation failed", "error", err)
	} else {
		log.Debug("Operation rejected", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": userMessage(err)})
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	writeJSON(w, http.StatusOK, msg)
}

func ephemeral(text string) slack.Message {
	return slack.Message{Msg: slack.Msg{ResponseType: "ephemeral", Text: text}}
}

// verifySlackRequest checks the request signature and leaves the body readable.
// An empty secret disables the check.
func verifySlackRequest(r *http.Request, signingSecret string) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if signingSecret == "" {
		return nil
	}
	verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}
