package websocket

import (
	"fmt"

	"github.com/matyusmilan/xm-forex/internal/models"
)

// DefaultGreeting - первое сообщение после подключения
const DefaultGreeting = "Connection..."

// Сообщения канала ордеров передаются простым текстом, по одному на фрейм.

// OrderStatusMessage - ответ отправителю о результате размещения ордера
func OrderStatusMessage(order *models.Order) string {
	return fmt.Sprintf("Order %s status: %s", order.ID, order.Status)
}

// ClientSaysMessage - broadcast исходного сообщения клиента
func ClientSaysMessage(clientID string, raw []byte) string {
	return fmt.Sprintf("Client #%s says: %s", clientID, raw)
}

// ClientLeftMessage - broadcast об отключении клиента
func ClientLeftMessage(clientID string) string {
	return fmt.Sprintf("Client #%s left the chat", clientID)
}
