package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"deliveryPanel/internal/modules/schedules/application/usecase"
	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/modules/schedules/infrastructure"
	"deliveryPanel/internal/shared/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewOpenStateWebsocketHandler serves GET /ws/merchants/:merchantId/open. The token comes from the
// Authorization header or the "token" query parameter. The client receives the current state right
// after the upgrade and again whenever it changes; {"action":"refresh"} forces a re-evaluation.
func NewOpenStateWebsocketHandler(
	hub *infrastructure.Hub,
	sessions *auth.SessionRegistry,
	openUC *usecase.OpenStateUseCase,
	broadcastUC *usecase.BroadcastUseCase,
	sendBuffer int,
) echo.HandlerFunc {
	mapper := newErrorMapper()
	return func(c echo.Context) error {
		merchantID := strings.TrimSpace(c.Param("merchantId"))
		token := auth.ExtractToken(c.Request(), "token")
		if token == "" {
			return respondError(c, mapper, auth.ErrMissingToken)
		}
		session, err := sessions.Resolve(token)
		if err != nil {
			return respondError(c, mapper, err)
		}
		if merchantID == "" {
			return respondError(c, mapper, usecase.ErrMissingMerchant)
		}
		if !session.CanManage(merchantID) {
			return respondError(c, mapper, auth.ErrMerchantDenied)
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
		state, err := openUC.Evaluate(ctx, session.Token, merchantID)
		cancel()
		if err != nil {
			return respondError(c, mapper, err)
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws open-state upgrade failed", slog.String("merchantId", merchantID), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, infrastructure.ClientIdentity{
			UserID:     session.Subject,
			SessionID:  session.ID,
			MerchantID: merchantID,
		}, sendBuffer)
		client.OnCommand("refresh", func(ctx context.Context, cl *infrastructure.Client, _ infrastructure.Command) error {
			openUC.RefreshMerchant(ctx, cl.MerchantID(), true, broadcastUC)
			return nil
		})
		client.OnClose(func(cl *infrastructure.Client) {
			openUC.Unwatch(cl.Key())
		})
		hub.Attach(client, domain.OpenStateTopic(merchantID))
		openUC.Watch(client.Key(), merchantID, session.Token)

		client.Send(&domain.Message{
			Topic:      domain.TopicSystemConnected,
			Entity:     domain.SystemEntity,
			Action:     domain.ActionConnected,
			ResourceID: merchantID,
			Metadata:   domain.Metadata{"sessionId": session.ID, "merchantId": merchantID},
			Timestamp:  time.Now().UTC(),
		})
		client.Send(domain.BuildOpenStateMessage(merchantID, state))

		go client.Run()
		return nil
	}
}
