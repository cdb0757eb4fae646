package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// otpStore keeps OTP hashes, attempt counters, cooldowns and rotating
// refresh tokens in Redis. Everything expires on its own.
type otpStore struct {
	client *redis.Client
}

func newOTPStore(client *redis.Client) *otpStore {
	return &otpStore{client: client}
}

func (r *otpStore) storeOTPHash(ctx context.Context, phone, hash string, ttl time.Duration) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, otpCodeKey(phone), hash, ttl)
	pipe.Del(ctx, otpAttemptsKey(phone))
	_, err := pipe.Exec(ctx)
	return err
}

func (r *otpStore) getOTPHash(ctx context.Context, phone string) (string, error) {
	return r.client.Get(ctx, otpCodeKey(phone)).Result()
}

func (r *otpStore) deleteOTP(ctx context.Context, phone string) error {
	return r.client.Del(ctx, otpCodeKey(phone), otpAttemptsKey(phone)).Err()
}

func (r *otpStore) incrOTPAttempts(ctx context.Context, phone string, ttl time.Duration) (int64, error) {
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, otpAttemptsKey(phone))
	pipe.ExpireNX(ctx, otpAttemptsKey(phone), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incrCmd.Val(), nil
}

func (r *otpStore) setCooldown(ctx context.Context, phone string, ttl time.Duration) error {
	return r.client.Set(ctx, otpCooldownKey(phone), "", ttl).Err()
}

func (r *otpStore) isOnCooldown(ctx context.Context, phone string) (bool, error) {
	n, err := r.client.Exists(ctx, otpCooldownKey(phone)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *otpStore) storeRefreshToken(ctx context.Context, hash, userID string, ttl time.Duration) error {
	return r.client.Set(ctx, refreshTokenKey(hash), userID, ttl).Err()
}

func (r *otpStore) getRefreshToken(ctx context.Context, hash string) (string, error) {
	return r.client.Get(ctx, refreshTokenKey(hash)).Result()
}

func (r *otpStore) deleteRefreshToken(ctx context.Context, hash string) error {
	return r.client.Del(ctx, refreshTokenKey(hash)).Err()
}

func otpCodeKey(phone string) string {
	return fmt.Sprintf("otp:code:%s", phone)
}

func otpAttemptsKey(phone string) string {
	return fmt.Sprintf("otp:attempts:%s", phone)
}

func otpCooldownKey(phone string) string {
	return fmt.Sprintf("otp:cooldown:%s", phone)
}

func refreshTokenKey(hash string) string {
	return fmt.Sprintf("refresh:token:%s", hash)
}
