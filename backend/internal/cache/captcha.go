package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/logger"
	"github.com/redis/go-redis/v9"
)

const defaultChallengeTTL = 10 * time.Minute

var errCaptchaMismatch = errors.New("captcha mismatch")

// Challenge is a question the client has to answer. The answer is sent
// back as "<id>:<answer>" in the captcha field of a submission.
type Challenge struct {
	Id       string
	Question string
}

// Captcha issues single-use arithmetic challenges and keeps their answers
// in redis until they are answered or expire.
type Captcha struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	intn   func(n int) int
}

func NewCaptcha(client *redis.Client, prefix string, ttl time.Duration) *Captcha {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = defaultChallengeTTL
	}
	return &Captcha{client: client, prefix: prefix + "captcha:", ttl: ttl, intn: rand.IntN}
}

func (c *Captcha) Issue(ctx context.Context) (Challenge, error) {
	a, b := c.intn(10)+1, c.intn(10)+1
	challenge := Challenge{Id: uuid.NewString(), Question: fmt.Sprintf("%d + %d", a, b)}

	if err := c.client.Set(ctx, c.prefix+challenge.Id, a+b, c.ttl).Err(); err != nil {
		return Challenge{}, fmt.Errorf("store captcha: %w", err)
	}
	return challenge, nil
}

// Verify consumes the challenge; a second attempt with the same id fails.
func (c *Captcha) Verify(ctx context.Context, actor domain.Actor, token string) error {
	id, answer, ok := strings.Cut(token, ":")
	if !ok || id == "" {
		return errCaptchaMismatch
	}

	expected, err := c.client.GetDel(ctx, c.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return errCaptchaMismatch
	}
	if err != nil {
		logger.Log.Warn("captcha lookup failed", "component", "captcha", "error", err)
		return err
	}
	if strings.TrimSpace(answer) != expected {
		logger.Log.Debug("wrong captcha answer", "component", "captcha", "ip", actor.IP)
		return errCaptchaMismatch
	}
	return nil
}
