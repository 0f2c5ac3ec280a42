package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS lets the dashboard and the canvas renderer reach the panel from
// another origin, including a page opened from disk. An empty list or a "*"
// entry allows every origin.
//
// Credentials stay off. Content-Disposition is exposed for the journal
// export.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", "Authorization", "Accept", "Cache-Control", "Last-Event-ID"},
		ExposeHeaders: []string{"Content-Disposition", "Content-Encoding"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
