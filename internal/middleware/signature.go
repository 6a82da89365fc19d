package middleware

import (
	"bytes"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"membership-bot/internal/dto"
	"membership-bot/internal/model"

	"github.com/labstack/echo/v4"
)

// MidtransSignature rejects notifications whose signature_key is not
// sha512(order_id + status_code + gross_amount + server_key).
// The body is restored so handlers can bind it again.
func MidtransSignature(serverKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, dto.WebhookResponse{Status: "error", Message: "unreadable body"})
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			var n model.MidtransNotification
			if err := json.Unmarshal(body, &n); err != nil {
				return c.JSON(http.StatusBadRequest, dto.WebhookResponse{Status: "error", Message: "invalid notification body"})
			}

			if !ValidMidtransSignature(&n, serverKey) {
				return c.JSON(http.StatusUnauthorized, dto.WebhookResponse{Status: "error", Message: "invalid signature"})
			}
			return next(c)
		}
	}
}

func ValidMidtransSignature(n *model.MidtransNotification, serverKey string) bool {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}
