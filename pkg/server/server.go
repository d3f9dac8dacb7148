// Package server exposes the sales predictor over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("log")

const welcome = "Welcome to the Sales Forecasting API! Use /predict to get predictions."

// Predictor is the part of inference.Predictor the server needs.
type Predictor interface {
	Predict(record map[string]any) (float64, error)
	RunID() string
}

type Server struct {
	predictor Predictor
	engine    *gin.Engine
	http      *http.Server
	drain     time.Duration
}

// New builds the router. drain bounds how long Run waits for in-flight
// requests once its context is cancelled.
func New(addr string, p Predictor, drain time.Duration) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{predictor: p, engine: gin.New(), drain: drain}
	s.engine.Use(requestLogger(), gin.Recovery())
	s.engine.GET("/", s.home)
	s.engine.GET("/healthz", s.health)
	s.engine.POST("/predict", s.predict)
	s.http = &http.Server{Addr: addr, Handler: s.engine}
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Infof("Shutting down server, draining for up to %s", s.drain)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.drain)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": welcome})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "run_id": s.predictor.RunID()})
}

// predict answers 200 in every case; failures are reported in the body.
func (s *Server) predict(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Prediction panicked: %v", r)
			c.JSON(http.StatusOK, gin.H{"error": fmt.Sprint(r)})
		}
	}()

	log.Debugf("Received request for prediction")
	record, err := decodeRecord(c)
	if err == nil {
		var sales float64
		sales, err = s.predictor.Predict(record)
		if err == nil && (math.IsNaN(sales) || math.IsInf(sales, 0)) {
			err = fmt.Errorf("prediction is not a finite number: %v", sales)
		}
		if err == nil {
			log.Debugf("Prediction: %.2f", sales)
			c.JSON(http.StatusOK, gin.H{"predicted_sales": sales})
			return
		}
	}
	log.Errorf("Error in prediction: %v", err)
	c.JSON(http.StatusOK, gin.H{"error": err.Error()})
}

func decodeRecord(c *gin.Context) (map[string]any, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if record == nil {
		return nil, errors.New("request body must be a JSON object")
	}
	return record, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()
		log.Infof("%s %s %d %s [%s]", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), id)
	}
}
