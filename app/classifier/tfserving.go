package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/primatebot/core/config"
	"github.com/m3rciful/primatebot/core/logger"
)

// TFServing talks to a TensorFlow Serving REST endpoint. If the startup
// probe fails the client stays up but answers every Classify with
// ErrUnavailable, the bot keeps running without the model.
type TFServing struct {
	base      string
	model     string
	inputSize int
	client    *http.Client

	available bool
}

// NewTFServing builds the client and probes the model once. cfg must be
// normalized.
func NewTFServing(ctx context.Context, cfg coreconfig.ClassifierConfig) *TFServing {
	c := &TFServing{
		base:      strings.TrimRight(cfg.URL, "/"),
		model:     cfg.Model,
		inputSize: cfg.InputSize,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}

	if cfg.Disabled || c.base == "" {
		logger.Warn(ctx, "classifier", "model.disabled",
			slog.String("model", c.model),
		)
		return c
	}

	if err := c.probe(ctx); err != nil {
		logger.Error(ctx, "classifier", "model.probe",
			slog.String("status", "fail"),
			slog.String("model", c.model),
			slog.String("err", err.Error()),
		)
		return c
	}

	c.available = true
	logger.Info(ctx, "classifier", "model.probe",
		slog.String("status", "ok"),
		slog.String("model", c.model),
		slog.Int("input_size", c.inputSize),
	)
	return c
}

// Available reports whether the startup probe succeeded.
func (c *TFServing) Available() bool {
	return c.available
}

func (c *TFServing) probe(ctx context.Context) error {
	u := fmt.Sprintf("%s/v1/models/%s", c.base, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model status: %s", resp.Status)
	}
	return nil
}

type predictRequest struct {
	Instances [][][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

// Classify sends the preprocessed image to the predict endpoint and
// maps the raw probability to a label.
func (c *TFServing) Classify(ctx context.Context, imagePath string) (Prediction, error) {
	if !c.available {
		return Prediction{}, ErrUnavailable
	}

	tensor, err := loadTensor(imagePath, c.inputSize)
	if err != nil {
		return Prediction{}, err
	}

	body, err := json.Marshal(predictRequest{Instances: [][][][]float64{tensor}})
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier: encode request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/models/%s:predict", c.base, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier: predict request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("classifier: predict status %s: %s", resp.Status, logger.SanitizeLimit(string(raw), 256))
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Prediction{}, fmt.Errorf("classifier: decode response: %w", err)
	}
	if out.Error != "" {
		return Prediction{}, fmt.Errorf("classifier: model error: %s", out.Error)
	}
	if len(out.Predictions) == 0 || len(out.Predictions[0]) == 0 {
		return Prediction{}, fmt.Errorf("classifier: empty predictions")
	}

	pred := Decide(out.Predictions[0][0])
	logger.Debug(ctx, "classifier", "model.predict",
		slog.String("label", pred.Label),
		slog.Float64("probability", pred.Probability),
		slog.Float64("confidence", pred.Confidence),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	)
	return pred, nil
}
