package logger

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Recover converts handler panics into 500 responses and crash logs.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			path, err := RecordPanic(p, fmt.Sprintf("%s %s", r.Method, r.URL.Path))
			if err != nil {
				slog.Error("panic in handler; crash log not written", "panic", p, "error", err)
			} else {
				slog.Error("panic in handler", "panic", p, "crash_log", path)
			}
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
