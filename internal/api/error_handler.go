package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/movie"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/room"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/screening"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/user"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
// Seats は座席競合（409）のときだけ入り、取得できなかった座席IDを列挙する
type ErrorResponse struct {
	Error string  `json:"error"`
	Code  int     `json:"code,omitempty"`
	Seats []int64 `json:"seats,omitempty"`
}

// CustomHTTPErrorHandler はドメインエラーをHTTPステータスへ写すエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message, seats := classifyError(err)

	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
		Seats: seats,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

// classifyError はエラーをステータスコードとメッセージに分類する
// 不在は404、座席競合は409、前提条件や入力の問題は400に落とす
func classifyError(err error) (int, string, []int64) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		return he.Code, message, nil
	}

	var taken *reservation.SeatsTakenError
	if errors.As(err, &taken) {
		return http.StatusConflict, taken.Error(), taken.SeatIDs
	}

	switch {
	case errors.Is(err, reservation.ErrReservationNotFound),
		errors.Is(err, screening.ErrScreeningNotFound),
		errors.Is(err, movie.ErrMovieNotFound),
		errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrSeatNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, err.Error(), nil

	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error(), nil

	case errors.Is(err, reservation.ErrNotPending),
		errors.Is(err, reservation.ErrReservationExpired),
		errors.Is(err, reservation.ErrScreeningStarted),
		errors.Is(err, reservation.ErrInvalidTransition),
		errors.Is(err, reservation.ErrNoSeats),
		errors.Is(err, reservation.ErrInvalidStatus),
		errors.Is(err, reservation.ErrInvalidSeatSet),
		errors.Is(err, reservation.ErrUnknownSeat),
		errors.Is(err, reservation.ErrSeatWrongRoom),
		errors.Is(err, reservation.ErrInvalidSeatCount):
		return http.StatusBadRequest, err.Error(), nil
	}

	return http.StatusInternalServerError, "内部サーバーエラー", nil
}
