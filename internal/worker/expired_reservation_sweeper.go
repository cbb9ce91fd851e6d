package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/logger"
)

// ReservationSweepService は期限切れ予約の掃除に必要な操作
type ReservationSweepService interface {
	CancelExpiredReservations(ctx context.Context) (int, error)
	UpdateStatusGauges(ctx context.Context) error
}

// ExpiredReservationSweeper は期限切れのpending予約を定期的にキャンセルするワーカー
// 予約コアは読み取り時の遅延失効で守られているので、これは表示と集計を
// きれいに保つための掃除役にすぎない
type ExpiredReservationSweeper struct {
	service  ReservationSweepService
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewExpiredReservationSweeper は新しいスイーパーを作成
func NewExpiredReservationSweeper(service ReservationSweepService, interval time.Duration) *ExpiredReservationSweeper {
	return &ExpiredReservationSweeper{
		service:  service,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (s *ExpiredReservationSweeper) Start(ctx context.Context) {
	logger.Info("期限切れ予約スイーパー開始", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ予約スイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("期限切れ予約スイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (s *ExpiredReservationSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// sweep は期限切れ予約をキャンセルし、状態別ゲージを更新する
func (s *ExpiredReservationSweeper) sweep(ctx context.Context) {
	count, err := s.service.CancelExpiredReservations(ctx)
	if err != nil {
		logger.Error("期限切れ予約の掃除に失敗", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("期限切れ予約をキャンセル", zap.Int("count", count))
	} else {
		logger.Debug("期限切れ予約なし")
	}

	if err := s.service.UpdateStatusGauges(ctx); err != nil {
		logger.Warn("予約状態ゲージの更新に失敗", zap.Error(err))
	}
}
