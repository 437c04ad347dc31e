package webapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const DefaultPort = 80

type Greeting struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// Engine serves the container app: a greeting on / and a health check on /healthz.
func Engine(version string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, Greeting{Message: "Hello from App Runner", Version: version})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Serve blocks until ctx is done, then drains in-flight requests.
func Serve(ctx context.Context, port int, version string) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           Engine(version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Int("port", port).Msg("listening")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
