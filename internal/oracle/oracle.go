// Package oracle produces AI diagnosis suggestions from patient vitals
// and symptoms. The external model is the only third-party call in the
// system whose transient failures are masked: a model-overloaded
// response is retried a fixed number of times with a fixed delay, and
// everything else fails straight through to the caller.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/domain/healthrecord"
	"github.com/telecare/telecare/pkg/metrics"
)

// ErrOverloaded marks a transient capacity failure of the model
// provider. It is the only error the client retries on.
var ErrOverloaded = errors.New("diagnosis model overloaded")

// Generator is the raw text-generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	gen         Generator
	maxAttempts int
	retryDelay  time.Duration
	log         *zap.Logger
	collector   *metrics.Collector
}

func NewClient(gen Generator, maxAttempts int, retryDelay time.Duration, collector *metrics.Collector, log *zap.Logger) *Client {
	return &Client{
		gen:         gen,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		log:         log,
		collector:   collector,
	}
}

// PatientData is the snapshot embedded into the diagnosis prompt.
type PatientData struct {
	Vitals   healthrecord.Vitals
	Age      int
	Gender   string
	Symptoms []string
}

// Diagnose formats the diagnosis prompt and calls the model, retrying
// on ErrOverloaded only, with a fixed delay between attempts and a hard
// attempt cap. The delay is cancellable through ctx.
func (c *Client) Diagnose(ctx context.Context, data PatientData) (string, error) {
	prompt := buildPrompt(data)

	attempt := 0
	operation := func() (string, error) {
		attempt++
		text, err := c.gen.Generate(ctx, prompt)
		if err != nil {
			if errors.Is(err, ErrOverloaded) {
				c.collector.OracleAttemptsTotal.WithLabelValues("overloaded").Inc()
				return "", err
			}
			c.collector.OracleAttemptsTotal.WithLabelValues("error").Inc()
			return "", backoff.Permanent(err)
		}
		c.collector.OracleAttemptsTotal.WithLabelValues("ok").Inc()
		return text, nil
	}

	text, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retryDelay)),
		backoff.WithMaxTries(uint(c.maxAttempts)),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.collector.OracleRetriesTotal.Inc()
			c.log.Warn("model overloaded, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("delay", d),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		c.collector.AnalysesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("generating diagnosis after %d attempts: %w", attempt, err)
	}

	c.collector.AnalysesTotal.WithLabelValues("ok").Inc()
	return text, nil
}

func buildPrompt(data PatientData) string {
	var b strings.Builder

	b.WriteString("Act as a medical AI assistant. Analyze the following patient data and symptoms.\n\n")
	b.WriteString("Patient Vitals:\n")
	fmt.Fprintf(&b, "- Height: %s\n", data.Vitals.Height)
	fmt.Fprintf(&b, "- Gender: %s\n", data.Gender)
	fmt.Fprintf(&b, "- Age: %d\n", data.Age)
	fmt.Fprintf(&b, "- Weight: %s\n", data.Vitals.Weight)
	fmt.Fprintf(&b, "- Temperature: %s\n", data.Vitals.Temperature)
	fmt.Fprintf(&b, "- SpO2: %s\n", data.Vitals.SpO2)
	fmt.Fprintf(&b, "- Heart Rate: %s\n", data.Vitals.HeartRate)
	b.WriteString("\nSelected Symptoms:\n")
	b.WriteString(strings.Join(data.Symptoms, ", "))
	b.WriteString("\n\nBased on this information, provide a diagnosis of the potential problem(s) and prescribe medicines.\n\n")
	b.WriteString("Output Format:\n")
	b.WriteString("Problem: [Problem/Diagnosis]\n")
	b.WriteString("Medicines:\n")
	b.WriteString("- [Medicine Name] - [Amount/Dosage] - [Frequency (e.g., 1-0-1)]\n\n")
	b.WriteString("Provide only the output in the specified format. Do not include disclaimers in the output text (I will handle them in the UI).\n")

	return b.String()
}
