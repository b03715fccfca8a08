package handlers

import (
	"net/http"
)

// Routes registers the REST surface. auth wraps every protected route.
func Routes(mux *http.ServeMux, users *UserHandler, tasks *TaskHandler, auth func(http.Handler) http.Handler) {
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /users", users.Signup)
	mux.HandleFunc("POST /users/login", users.Login)
	mux.HandleFunc("GET /users/{id}/avatar", users.GetAvatar)

	// Protected - Users
	mux.Handle("POST /users/logout", protect(users.Logout))
	mux.Handle("POST /users/logout/all", protect(users.LogoutAll))
	mux.Handle("GET /users/me", protect(users.Me))
	mux.Handle("PATCH /users/me", protect(users.UpdateMe))
	mux.Handle("PATCH /users/{id}", protect(users.UpdateByID))
	mux.Handle("DELETE /users/me", protect(users.DeleteMe))
	mux.Handle("POST /users/me/avatar", protect(users.UploadAvatar))
	mux.Handle("DELETE /users/me/avatar", protect(users.DeleteAvatar))

	// Protected - Tasks
	mux.Handle("POST /tasks", protect(tasks.Create))
	mux.Handle("GET /tasks", protect(tasks.List))
	mux.Handle("GET /tasks/{id}", protect(tasks.Get))
	mux.Handle("PATCH /tasks/{id}", protect(tasks.Update))
	mux.Handle("DELETE /tasks/{id}", protect(tasks.Delete))
}
