package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/listmsg/mailman-bridge/internal/archiver"
	"github.com/listmsg/mailman-bridge/internal/logger"
	"github.com/listmsg/mailman-bridge/internal/model"
)

type archiveReq struct {
	MList     model.ListInfo    `json:"mlist"`
	MessageID string            `json:"message_id"`
	Sender    string            `json:"sender"`
	Headers   map[string]string `json:"headers"`
}

// archiveHandler is the out-of-process face of the archiver hook: the
// mailing-list host POSTs one event per delivered email.
func archiveHandler(hook archiver.Hook) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req archiveReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		event := model.ArchiveEvent{
			MList:     req.MList,
			MessageID: strings.TrimSpace(req.MessageID),
			Sender:    strings.TrimSpace(req.Sender),
			Headers:   lowerKeys(req.Headers),
		}
		if event.MessageID == "" {
			event.MessageID = event.Header("message-id")
		}
		if event.Sender == "" {
			event.Sender = event.Header("from")
		}
		if event.MList.ListID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing mlist.list_id"})
		}

		if err := hook.ArchiveMessage(c.Request().Context(), event); err != nil {
			// the hook contract swallows publish problems; anything
			// surfacing here is unexpected
			logger.Log.Error("archive hook failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal"})
		}

		return c.JSON(http.StatusAccepted, map[string]any{
			"accepted": true,
			"list_id":  event.MList.ListID,
		})
	}
}

func lowerKeys(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}
