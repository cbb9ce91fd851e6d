package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/movie"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/room"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/screening"
	redisinfra "github.com/sanosuguru/go-cinema-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/logger"
)

// 空席数キャッシュのTTL。書き込み側の無効化が漏れても長くは嘘をつかない
const availabilityCacheTTL = 30 * time.Second

// CatalogService は映画・スクリーン・上映カタログの参照系を提供する
type CatalogService struct {
	movieRepo     movie.Repository
	screeningRepo screening.Repository
	roomRepo      room.Repository
	cache         *redisinfra.AvailabilityCache
}

func NewCatalogService(
	mr movie.Repository,
	sr screening.Repository,
	rr room.Repository,
	cache *redisinfra.AvailabilityCache,
) *CatalogService {
	return &CatalogService{movieRepo: mr, screeningRepo: sr, roomRepo: rr, cache: cache}
}

func (s *CatalogService) ListMovies(ctx context.Context) ([]*movie.Movie, error) {
	return s.movieRepo.List(ctx)
}

func (s *CatalogService) GetMovie(ctx context.Context, id int64) (*movie.Movie, error) {
	return s.movieRepo.GetByID(ctx, id)
}

func (s *CatalogService) ListScreenings(ctx context.Context, filter screening.ListFilter) ([]*screening.Screening, error) {
	return s.screeningRepo.List(ctx, filter)
}

func (s *CatalogService) GetScreening(ctx context.Context, id int64) (*screening.Screening, error) {
	return s.screeningRepo.GetByID(ctx, id)
}

// RoomSeats はスクリーンとその座席レイアウト
type RoomSeats struct {
	Room  *room.Room
	Seats []*room.Seat
}

func (s *CatalogService) GetRoomSeats(ctx context.Context, roomID int64) (*RoomSeats, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	seats, err := s.roomRepo.ListSeatsByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &RoomSeats{Room: rm, Seats: seats}, nil
}

// GetAvailableSeatCount は上映の空席数を返す
// キャッシュ優先で読み、ミス時はDBで数えてキャッシュに書き戻す
func (s *CatalogService) GetAvailableSeatCount(ctx context.Context, screeningID int64) (int, error) {
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, screeningID)
		if err == nil {
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("空席数キャッシュの読み取りに失敗", zap.Error(err))
		}
	}

	if _, err := s.screeningRepo.GetByID(ctx, screeningID); err != nil {
		return 0, err
	}
	count, err := s.screeningRepo.CountAvailableSeats(ctx, screeningID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailableCount(ctx, screeningID, count, availabilityCacheTTL); err != nil {
			logger.Warn("空席数キャッシュの書き込みに失敗", zap.Error(err))
		}
	}
	return count, nil
}

// SeatMapEntry は座席マップの1座席分（割当済みかどうかを含む）
type SeatMapEntry struct {
	Seat  room.Seat
	Taken bool
}

// GetSeatMap は上映に対する全座席の割当状況を返す
func (s *CatalogService) GetSeatMap(ctx context.Context, screeningID int64) ([]SeatMapEntry, error) {
	sc, err := s.screeningRepo.GetByID(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	seats, err := s.roomRepo.ListSeatsByRoom(ctx, sc.RoomID)
	if err != nil {
		return nil, err
	}
	takenIDs, err := s.screeningRepo.ListTakenSeatIDs(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]struct{}, len(takenIDs))
	for _, id := range takenIDs {
		taken[id] = struct{}{}
	}

	entries := make([]SeatMapEntry, len(seats))
	for i, seat := range seats {
		_, isTaken := taken[seat.ID]
		entries[i] = SeatMapEntry{Seat: *seat, Taken: isTaken}
	}
	return entries, nil
}
