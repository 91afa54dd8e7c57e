package storage

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrOTPNotFound = errors.New("otp not found or expired")

// OTPStorage хранит одноразовые коды подтверждения регистрации.
// Коды живут ограниченное время и удаляются после успешной проверки.
type OTPStorage interface {
	Save(ctx context.Context, email, code string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, email string) (code string, payload []byte, err error)
	Delete(ctx context.Context, email string) error
}

type otpRepository struct {
	client *redis.Client
}

func NewOTPRepository(client *redis.Client) OTPStorage {
	return &otpRepository{client: client}
}

func otpKey(email string) string     { return "otp:" + email }
func payloadKey(email string) string { return "otp:payload:" + email }

func (r *otpRepository) Save(ctx context.Context, email, code string, payload []byte, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, otpKey(email), code, ttl)
	pipe.Set(ctx, payloadKey(email), payload, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *otpRepository) Get(ctx context.Context, email string) (string, []byte, error) {
	code, err := r.client.Get(ctx, otpKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil, ErrOTPNotFound
		}
		return "", nil, err
	}
	payload, err := r.client.Get(ctx, payloadKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil, ErrOTPNotFound
		}
		return "", nil, err
	}
	return code, payload, nil
}

func (r *otpRepository) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, otpKey(email), payloadKey(email)).Err()
}
