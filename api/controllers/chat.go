package controllers

import (
	"net/http"

	"github.com/gamesage/gamesage-backend/api/responses"
	"github.com/gamesage/gamesage-backend/api/validators"
	chatsvc "github.com/gamesage/gamesage-backend/internal/chat"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
	"github.com/gamesage/gamesage-backend/pkg/logger"
)

// ChatStream runs the shopping assistant and streams the reply as plain
// text chunks, flushed as they arrive from the model.
func ChatStream(svc chatsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		var payload chatsvc.ChatInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Accel-Buffering", "no")

		wroteAny := false
		err := svc.StreamReply(r.Context(), payload, func(delta string) error {
			if _, err := w.Write([]byte(delta)); err != nil {
				return err
			}
			wroteAny = true
			flusher.Flush()
			return nil
		})
		if err != nil {
			// Headers are already gone once the first chunk is flushed, so
			// the error envelope is only usable before any output.
			if !wroteAny {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if logg != nil {
				logg.Error(r.Context(), "chat stream aborted mid-reply", err)
			}
		}
	}
}
