package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/taskmanager/internal/imaging"
	"github.com/vedran77/taskmanager/internal/service"
	"github.com/vedran77/taskmanager/internal/transport/http/middleware"
)

var userUpdateFields = []string{"name", "email", "password", "age"}

// multipart framing on top of the file itself
const avatarFormOverhead = 64 << 10

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	resp, err := h.userService.Signup(r.Context(), input)
	if err != nil {
		h.writeUserError(w, "signup", err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "LOGIN_FAILED", "Login failed")
		return
	}

	resp, err := h.userService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusBadRequest, "LOGIN_FAILED", "Login failed")
		} else {
			h.logger.Error("login", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.userService.Logout(r.Context(), user, middleware.GetToken(r.Context())); err != nil {
		h.logger.Error("logout", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Logout request failed")
		return
	}

	writeMessage(w, http.StatusOK, "User logged out.")
}

func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.userService.LogoutAll(r.Context(), user); err != nil {
		h.logger.Error("logout all", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Logout request failed")
		return
	}

	writeMessage(w, http.StatusOK, "User logged out all sessions.")
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetUser(r.Context()))
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, middleware.GetUserID(r.Context()))
}

func (h *UserHandler) UpdateByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	h.update(w, r, id)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, targetID uuid.UUID) {
	var input service.UpdateUserInput
	if err := decodeUpdate(r, userUpdateFields, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), middleware.GetUser(r.Context()), targetID, input)
	if err != nil {
		h.writeUserError(w, "update user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.userService.Delete(r.Context(), user); err != nil {
		h.logger.Error("delete user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeMessage(w, http.StatusOK, "You are deleted successfully.")
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxAvatarBytes+avatarFormOverhead)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAvatarError(w, "File too large")
		} else {
			writeAvatarError(w, "Please upload an image.")
		}
		return
	}
	defer file.Close()

	if header.Size > imaging.MaxAvatarBytes {
		writeAvatarError(w, "File too large")
		return
	}
	if !imaging.AllowedAvatarExt(header.Filename) {
		writeAvatarError(w, "Please upload an image.")
		return
	}

	if err := h.userService.SetAvatar(r.Context(), userID, file); err != nil {
		if errors.Is(err, service.ErrInvalidAvatar) {
			writeAvatarError(w, "Please upload an image.")
		} else {
			h.logger.Error("upload avatar", zap.Error(err))
			writeAvatarError(w, "Image could not be saved")
		}
		return
	}

	writeMessage(w, http.StatusOK, "Image uploaded successfully")
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.DeleteAvatar(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.logger.Error("delete avatar", zap.Error(err))
		writeAvatarError(w, "Image could not be removed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User image not found")
		return
	}

	avatar, err := h.userService.GetAvatar(r.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrAvatarNotFound) {
			h.logger.Error("get avatar", zap.Error(err))
		}
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User image not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(avatar)
}

func (h *UserHandler) writeUserError(w http.ResponseWriter, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationErrors(w, verr.Fields)
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "EMAIL_TAKEN", "Email is already registered")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	default:
		h.logger.Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func writeAvatarError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "INVALID_AVATAR", message)
}
