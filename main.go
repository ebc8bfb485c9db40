package main

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"

	_ "net/http/pprof" // profiling

	_ "github.com/joho/godotenv/autoload" // automatically load .env files

	"github.com/charmbracelet/listview/internal/cmd"
)

const defaultProfileAddr = "localhost:6060"

// profileAddr reads LISTVIEW_PROFILE. A boolean enables the default address;
// anything else is used as the listen address.
func profileAddr(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	if on, err := strconv.ParseBool(v); err == nil {
		return defaultProfileAddr, on
	}
	return v, true
}

func main() {
	if addr, ok := profileAddr(os.Getenv("LISTVIEW_PROFILE")); ok {
		go func() {
			slog.Info("Serving pprof", "addr", addr, "debug", "/debug/pprof/goroutine?debug=2")
			if httpErr := http.ListenAndServe(addr, nil); httpErr != nil {
				slog.Error("Failed to pprof listen", "addr", addr, "error", httpErr)
			}
		}()
	}

	cmd.Execute()
}
