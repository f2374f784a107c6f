// Package stripeintent reads PaymentIntents back from Stripe with the
// publishable key and the client secret handed out by the payment endpoint.
package stripeintent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

type Options struct {
	Key string
	// URL overrides the API host (tests, stripe-mock).
	URL        string
	HTTPClient *http.Client
	Logger     *logger.Logger
}

type Verifier struct {
	intents paymentintent.Client
	log     *logger.Logger
}

func New(opts Options) (*Verifier, error) {
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		return nil, errors.New("stripe key required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "StripeVerifier")
	cfg := &stripe.BackendConfig{
		LeveledLogger:     leveled{log},
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	if u := strings.TrimRight(strings.TrimSpace(opts.URL), "/"); u != "" {
		cfg.URL = stripe.String(u)
	}
	return &Verifier{
		intents: paymentintent.Client{B: stripe.GetBackendWithConfig(stripe.APIBackend, cfg), Key: key},
		log:     log,
	}, nil
}

// IntentStatus returns the current status of the PaymentIntent. Stripe API
// errors come back as apierr HTTP errors.
func (v *Verifier) IntentStatus(ctx context.Context, intentID, clientSecret string) (domain.IntentStatus, error) {
	if intentID == "" || clientSecret == "" {
		return "", apierr.Validation(map[string]string{"payment_intent": "intent id and client secret are required"})
	}
	params := &stripe.PaymentIntentParams{ClientSecret: stripe.String(clientSecret)}
	params.Context = ctx
	pi, err := v.intents.Get(intentID, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) {
			return "", apierr.HTTP(se.HTTPStatusCode, se.Msg, nil, nil)
		}
		return "", fmt.Errorf("retrieve payment intent: %w", err)
	}
	v.log.Debug("payment intent retrieved", "intent", intentID, "status", pi.Status)
	return domain.IntentStatus(pi.Status), nil
}

type leveled struct{ log *logger.Logger }

func (l leveled) Debugf(format string, v ...interface{}) { l.log.Debug(fmt.Sprintf(format, v...)) }
func (l leveled) Infof(format string, v ...interface{})  { l.log.Debug(fmt.Sprintf(format, v...)) }
func (l leveled) Warnf(format string, v ...interface{})  { l.log.Warn(fmt.Sprintf(format, v...)) }
func (l leveled) Errorf(format string, v ...interface{}) { l.log.Error(fmt.Sprintf(format, v...)) }
