package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"judokit/internal/core/domain"
	"judokit/internal/observability"
)

// sandboxCards are judo sandbox test cards that authorise without a
// 3-D Secure challenge.
var sandboxCards = []struct {
	number, expiry, cv2 string
}{
	{"4976000000003436", "12/29", "452"},
	{"5100000000005460", "12/29", "524"},
	{"340000432128428", "12/29", "3428"},
}

type generator struct {
	target string
	judoID string
	token  string
	client *http.Client
	logger *slog.Logger
	rnd    *rand.Rand
}

func main() {
	target := flag.String("target", "http://localhost:8080/api/v1/payments", "relay endpoint for payments")
	judoID := flag.String("judo-id", os.Getenv("JUDO_ID"), "judo id to pay into")
	rps := flag.Int("rps", 5, "requests per second")
	jwtSecret := flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "relay JWT secret; empty sends no token")
	flag.Parse()

	logger := observability.SetupLogger("development")

	token, err := mintToken(*jwtSecret, time.Hour)
	if err != nil {
		logger.Error("failed to sign token", "error", err)
		os.Exit(1)
	}

	g := &generator{
		target: *target,
		judoID: *judoID,
		token:  token,
		client: &http.Client{Timeout: 40 * time.Second},
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	logger.Info("starting generator", "target", g.target, "rps", *rps)

	ticker := time.NewTicker(time.Second / time.Duration(max(*rps, 1)))
	defer ticker.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ticker.C:
			// Build on the ticker goroutine; rand.Rand is not safe for concurrent use.
			req := g.fakePayment()
			go g.send(ctx, req)
		case <-ctx.Done():
			logger.Info("shutting down generator")
			return
		}
	}
}

func mintToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", nil
	}
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "txn-generator",
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}).SignedString([]byte(secret))
}

func (g *generator) fakePayment() domain.CheckoutRequest {
	card := sandboxCards[g.rnd.Intn(len(sandboxCards))]
	addr := faker.GetRealAddress()

	return domain.CheckoutRequest{
		JudoID:            g.judoID,
		Amount:            json.Number(fmt.Sprintf("%d.%02d", 1+g.rnd.Intn(500), g.rnd.Intn(100))),
		Currency:          domain.DefaultCurrency,
		ConsumerReference: faker.Username(),
		PaymentReference:  uuid.NewString(),
		MetaData: map[string]any{
			"customer": faker.Name(),
			"email":    faker.Email(),
		},
		CardNumber:   card.number,
		ExpiryDate:   card.expiry,
		SecurityCode: card.cv2,
		CardAddress: &domain.AddressRequest{
			Line1:    addr.Address,
			Town:     addr.City,
			Postcode: addr.PostalCode,
			Country:  "USA",
		},
	}
}

func (g *generator) send(ctx context.Context, payment domain.CheckoutRequest) {
	body, err := json.Marshal(payment)
	if err != nil {
		g.logger.Error("failed to marshal request", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.target, bytes.NewReader(body))
	if err != nil {
		g.logger.Error("failed to build request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("failed to send request", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("payment not approved", "status", resp.StatusCode, "payment_reference", payment.PaymentReference)
		return
	}
	g.logger.Info("payment sent", "payment_reference", payment.PaymentReference)
}
