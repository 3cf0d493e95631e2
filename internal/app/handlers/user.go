package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/e-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/e-store/internal/service"
	"github.com/linemk/e-store/internal/storage"
)

// ListUsersHandler обрабатывает запрос GET /api/v1/users.
func ListUsersHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListUsersHandler"
		logger := log.With(slog.String("op", op))

		users, err := userService.ListUsers(r.Context())
		if err != nil {
			logger.Error("failed to list users", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "error getting users")
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Message: "All users below", Data: users})
	}
}

// GetUserHandler обрабатывает запрос GET /api/v1/user:
// профиль текущего пользователя из сессионного токена.
func GetUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetUserHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := userService.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				writeMessage(w, http.StatusNotFound, "User does not exist")
				return
			}
			logger.Error("failed to get user", slog.Any("error", err))
			writeMessage(w, http.StatusInternalServerError, "error getting user")
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Message: "User below", Data: user})
	}
}
