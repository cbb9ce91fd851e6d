package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/logger"
)

// ReservationEvent は予約の状態変化を下流（通知・分析）へ伝えるペイロード
// 主DBを再照会せずに処理できるだけの情報を持たせる
type ReservationEvent struct {
	ReservationID int64     `json:"reservation_id"`
	UserID        int64     `json:"user_id"`
	ScreeningID   int64     `json:"screening_id"`
	Status        string    `json:"status"`
	Total         int       `json:"total"`
	SeatIDs       []int64   `json:"seat_ids,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// QueueName は予約イベントの配送先キュー
const QueueName = "reservation.events"

// Publisher は予約イベントをRabbitMQへ発行する
// 発行失敗はログに残して呼び出し元へ返すだけで、予約処理自体は失敗させない
type Publisher struct {
	url string
}

// NewPublisher は新しいPublisherを作成する
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Publish はイベントをキューへ発行する（永続メッセージ）
func (p *Publisher) Publish(ctx context.Context, event ReservationEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		logger.Warn("rabbitmq接続に失敗", zap.Error(err))
		return fmt.Errorf("rabbitmq接続に失敗: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Warn("rabbitmqチャネル作成に失敗", zap.Error(err))
		return fmt.Errorf("rabbitmqチャネル作成に失敗: %w", err)
	}
	defer ch.Close()

	// キュー宣言は冪等。durableでブローカー再起動後もメッセージを保持する
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("キュー宣言に失敗: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}); err != nil {
		logger.Warn("予約イベント発行に失敗", zap.Error(err), zap.Int64("reservation_id", event.ReservationID))
		return fmt.Errorf("予約イベント発行に失敗: %w", err)
	}
	return nil
}
