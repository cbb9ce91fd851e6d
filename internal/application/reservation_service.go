package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/room"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/screening"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-cinema-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-cinema-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/metrics"
)

// MaxSeatCountHint は予約作成時の座席数ヒントの上限
// ヒントは情報提供のみで保存はしない（実際の座席数は割当で決まる）
const MaxSeatCountHint = 10

// EventPublisher は予約イベントの発行先
type EventPublisher interface {
	Publish(ctx context.Context, event rabbitmq.ReservationEvent) error
}

// ReservationService は予約のライフサイクルと座席確保を実行する
// 状態の真実は常にストアにあり、ここではトランザクション越しに読み書き
// するだけで、呼び出しをまたいで予約状態をメモリに保持しない
type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	screeningRepo   screening.Repository
	seatRepo        room.Repository
	clk             clock.Clock
	cache           *redisinfra.AvailabilityCache
	publisher       EventPublisher
}

func NewReservationService(
	txManager transaction.Manager,
	rr reservation.Repository,
	sr screening.Repository,
	seatRepo room.Repository,
	clk clock.Clock,
	cache *redisinfra.AvailabilityCache,
	publisher EventPublisher,
) *ReservationService {
	return &ReservationService{
		txManager:       txManager,
		reservationRepo: rr,
		screeningRepo:   sr,
		seatRepo:        seatRepo,
		clk:             clk,
		cache:           cache,
		publisher:       publisher,
	}
}

// CreateReservation は上映に対する新しい仮押さえを作成する
// seatCount は画面表示用のヒントで、検証はするが保存しない
func (s *ReservationService) CreateReservation(ctx context.Context, userID, screeningID int64, seatCount int) (*reservation.Reservation, error) {
	if seatCount < 1 || seatCount > MaxSeatCountHint {
		s.recordOp("create", reservation.ErrInvalidSeatCount)
		return nil, reservation.ErrInvalidSeatCount
	}

	sc, err := s.screeningRepo.GetByID(ctx, screeningID)
	if err != nil {
		s.recordOp("create", err)
		return nil, err
	}
	now := s.clk.Now()
	if sc.HasStarted(now) {
		s.recordOp("create", reservation.ErrScreeningStarted)
		return nil, reservation.ErrScreeningStarted
	}

	res := reservation.NewReservation(userID, screeningID, now)
	err = s.txManager.WithinTx(ctx, func(tx transaction.Tx) error {
		return s.reservationRepo.Create(ctx, tx, res)
	})
	if err != nil {
		s.recordOp("create", err)
		return nil, err
	}
	s.recordOp("create", nil)
	return res, nil
}

// AllocationResult は座席確保成功時の結果
type AllocationResult struct {
	Assignments []reservation.Assignment
	Total       int
}

// AllocateSeats は保留中の予約に座席集合を割当てる
// 事前チェック（SELECT）と (screening_id, seat_id) 一意制約の二段構えで
// 競合を防ぎ、並行する確保が同じ座席を含む場合は必ず一方だけが成功する
func (s *ReservationService) AllocateSeats(ctx context.Context, reservationID int64, seatIDs []int64) (*AllocationResult, error) {
	normalized, err := normalizeSeatIDs(seatIDs)
	if err != nil {
		s.recordOp("allocate", err)
		return nil, err
	}

	var (
		result      *AllocationResult
		screeningID int64
	)
	err = s.txManager.WithinTx(ctx, func(tx transaction.Tx) error {
		rws, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		now := s.clk.Now()
		if !rws.IsPending() {
			return reservation.ErrNotPending
		}
		if rws.IsExpired(now) {
			return reservation.ErrReservationExpired
		}
		if !rws.Screening.StartsAt.After(now) {
			return reservation.ErrScreeningStarted
		}

		seats, err := s.seatRepo.GetSeatsByIDs(ctx, tx, normalized)
		if err != nil {
			return err
		}
		if len(seats) != len(normalized) {
			return reservation.ErrUnknownSeat
		}
		for _, seat := range seats {
			if seat.RoomID != rws.Screening.RoomID {
				return reservation.ErrSeatWrongRoom
			}
		}

		// 事前チェック。ここを通過しても並行トランザクションとは競合し得る
		// ため、最終的な守りはINSERT時の一意制約に任せる
		taken, err := s.reservationRepo.GetTakenSeatIDs(ctx, tx, rws.ScreeningID, normalized)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return &reservation.SeatsTakenError{SeatIDs: taken}
		}

		if err := s.reservationRepo.InsertAssignments(ctx, tx, rws.ID, rws.ScreeningID, normalized, rws.Screening.Price); err != nil {
			return err
		}
		total, err := s.reservationRepo.RecomputeTotal(ctx, tx, rws.ID)
		if err != nil {
			return err
		}
		assignments, err := s.reservationRepo.GetAssignmentsTx(ctx, tx, rws.ID)
		if err != nil {
			return err
		}

		result = &AllocationResult{Assignments: assignments, Total: total}
		screeningID = rws.ScreeningID
		return nil
	})
	if err != nil {
		s.recordOp("allocate", err)
		return nil, err
	}

	s.invalidateAvailability(ctx, screeningID)
	s.recordOp("allocate", nil)
	if m := metrics.Get(); m != nil {
		m.SeatsAllocated.Observe(float64(len(normalized)))
	}
	return result, nil
}

// TransitionStatus は予約を要求された状態へ遷移させる
// 遷移は動詞ではなく目標状態で指定される。現在の状態と同じ paid / cancelled
// を要求した場合は前提条件を再検証せずそのまま成功する。pending → pending は
// 仮押さえの更新（期限の再設定）として扱う
func (s *ReservationService) TransitionStatus(ctx context.Context, id int64, target reservation.Status) (*reservation.Reservation, error) {
	if _, err := reservation.ParseStatus(string(target)); err != nil {
		s.recordOp("transition", err)
		return nil, err
	}

	var (
		updated *reservation.Reservation
		event   *rabbitmq.ReservationEvent
	)
	err := s.txManager.WithinTx(ctx, func(tx transaction.Tx) error {
		rws, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.clk.Now()
		current := rws.Status

		// 冪等なno-op。pendingだけは「もう一度pendingにしたい」が
		// 期限更新の意思表示なので下の遷移ロジックに進める
		if current == target && current != reservation.StatusPending {
			res := rws.Reservation
			updated = &res
			return nil
		}
		if current == reservation.StatusCancelled {
			return reservation.ErrInvalidTransition
		}

		switch target {
		case reservation.StatusPending:
			// 再オープン / 期限更新。失効済みでも上映開始前なら許す
			if !rws.Screening.StartsAt.After(now) {
				return reservation.ErrScreeningStarted
			}
			expires := now.Add(reservation.HoldDuration)
			if err := s.reservationRepo.SetStatus(ctx, tx, rws.ID, reservation.StatusPending, &expires); err != nil {
				return err
			}
			res := rws.Reservation
			res.Status = reservation.StatusPending
			res.ExpiresAt = &expires
			updated = &res

		case reservation.StatusPaid:
			if current != reservation.StatusPending {
				return reservation.ErrNotPending
			}
			if rws.IsExpired(now) {
				return reservation.ErrReservationExpired
			}
			if !rws.Screening.StartsAt.After(now) {
				return reservation.ErrScreeningStarted
			}
			count, err := s.reservationRepo.CountAssignments(ctx, tx, rws.ID)
			if err != nil {
				return err
			}
			if count == 0 {
				return reservation.ErrNoSeats
			}
			if err := s.reservationRepo.SetStatus(ctx, tx, rws.ID, reservation.StatusPaid, nil); err != nil {
				return err
			}
			res := rws.Reservation
			res.Status = reservation.StatusPaid
			res.ExpiresAt = nil
			updated = &res
			event = &rabbitmq.ReservationEvent{
				ReservationID: rws.ID, UserID: rws.UserID, ScreeningID: rws.ScreeningID,
				Status: string(reservation.StatusPaid), Total: rws.Total, OccurredAt: now,
			}

		case reservation.StatusCancelled:
			// 割当はフラグではなく物理削除する。これで解放済みの座席が
			// 以後の競合チェックに一切数えられなくなる
			if err := s.reservationRepo.DeleteAssignments(ctx, tx, rws.ID); err != nil {
				return err
			}
			total, err := s.reservationRepo.RecomputeTotal(ctx, tx, rws.ID)
			if err != nil {
				return err
			}
			if err := s.reservationRepo.SetStatus(ctx, tx, rws.ID, reservation.StatusCancelled, nil); err != nil {
				return err
			}
			res := rws.Reservation
			res.Status = reservation.StatusCancelled
			res.Total = total
			res.ExpiresAt = nil
			updated = &res
			event = &rabbitmq.ReservationEvent{
				ReservationID: rws.ID, UserID: rws.UserID, ScreeningID: rws.ScreeningID,
				Status: string(reservation.StatusCancelled), Total: 0, OccurredAt: now,
			}
		}
		return nil
	})
	if err != nil {
		s.recordOp("transition", err)
		return nil, err
	}

	if updated.Status == reservation.StatusCancelled {
		s.invalidateAvailability(ctx, updated.ScreeningID)
	}
	if event != nil {
		s.publishEvent(ctx, *event)
	}
	s.recordOp("transition", nil)
	return updated, nil
}

// GetReservation はIDから予約を取得する
func (s *ReservationService) GetReservation(ctx context.Context, id int64) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// GetReservationSeats は予約の座席割当一覧を取得する
func (s *ReservationService) GetReservationSeats(ctx context.Context, id int64) ([]reservation.Assignment, error) {
	if _, err := s.reservationRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.reservationRepo.GetAssignments(ctx, id)
}

// ListReservations は条件に合う予約一覧を取得する
func (s *ReservationService) ListReservations(ctx context.Context, filter reservation.ListFilter) ([]*reservation.Reservation, error) {
	return s.reservationRepo.List(ctx, filter)
}

// CancelExpiredReservations は期限切れのpending予約をキャンセル遷移に通す
// コア自体は遅延失効（読み取り時に気付く）のままで、これは外部スイープの入口
func (s *ReservationService) CancelExpiredReservations(ctx context.Context) (int, error) {
	ids, err := s.reservationRepo.GetExpiredPendingIDs(ctx, s.clk.Now(), 100)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, id := range ids {
		if _, err := s.TransitionStatus(ctx, id, reservation.StatusCancelled); err != nil {
			// スイープと利用者の操作は競合し得る。1件の失敗で全体は止めない
			logger.Warn("期限切れ予約のキャンセルに失敗",
				zap.Int64("reservation_id", id), zap.Error(err))
			continue
		}
		cancelled++
	}
	if m := metrics.Get(); m != nil && cancelled > 0 {
		m.ExpiredSweepTotal.Add(float64(cancelled))
	}
	return cancelled, nil
}

// UpdateStatusGauges は状態ごとの予約数メトリクスを更新する
func (s *ReservationService) UpdateStatusGauges(ctx context.Context) error {
	m := metrics.Get()
	if m == nil {
		return nil
	}
	counts, err := s.reservationRepo.CountByStatus(ctx)
	if err != nil {
		return err
	}
	for _, status := range []reservation.Status{reservation.StatusPending, reservation.StatusPaid, reservation.StatusCancelled} {
		m.ReservationsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	return nil
}

// normalizeSeatIDs は座席IDを重複除去し、個数と値域を検証する
func normalizeSeatIDs(seatIDs []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(seatIDs))
	normalized := make([]int64, 0, len(seatIDs))
	for _, id := range seatIDs {
		if id <= 0 {
			return nil, reservation.ErrInvalidSeatSet
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		normalized = append(normalized, id)
	}
	if len(normalized) == 0 || len(normalized) > reservation.MaxSeatsPerAllocation {
		return nil, reservation.ErrInvalidSeatSet
	}
	return normalized, nil
}

func (s *ReservationService) invalidateAvailability(ctx context.Context, screeningID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, screeningID); err != nil {
		logger.Warn("空席数キャッシュの無効化に失敗", zap.Error(err))
	}
}

func (s *ReservationService) publishEvent(ctx context.Context, event rabbitmq.ReservationEvent) {
	if s.publisher == nil {
		return
	}
	// 発行失敗で予約処理は失敗させない
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("予約イベント発行に失敗", zap.Error(err))
	}
}

func (s *ReservationService) recordOp(operation string, err error) {
	m := metrics.Get()
	if m == nil {
		return
	}
	m.ReservationOpsTotal.WithLabelValues(operation, opStatus(err)).Inc()
}

// opStatus はエラーをメトリクス用の結果ラベルに分類する
func opStatus(err error) string {
	var taken *reservation.SeatsTakenError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &taken):
		return "conflict"
	case errors.Is(err, reservation.ErrReservationExpired):
		return "expired"
	case errors.Is(err, reservation.ErrScreeningStarted):
		return "already_started"
	case errors.Is(err, reservation.ErrReservationNotFound),
		errors.Is(err, screening.ErrScreeningNotFound):
		return "not_found"
	case errors.Is(err, reservation.ErrNotPending),
		errors.Is(err, reservation.ErrInvalidTransition),
		errors.Is(err, reservation.ErrNoSeats),
		errors.Is(err, reservation.ErrInvalidStatus),
		errors.Is(err, reservation.ErrInvalidSeatSet),
		errors.Is(err, reservation.ErrUnknownSeat),
		errors.Is(err, reservation.ErrSeatWrongRoom),
		errors.Is(err, reservation.ErrInvalidSeatCount):
		return "invalid"
	}
	return "error"
}
