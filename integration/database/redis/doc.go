// Package redis connects to Redis with retry and exposes a health check.
//
// Connect validates the URL, creates a go-redis client and pings it. Failed
// pings are retried with exponential backoff until RetryAttempts is exhausted
// or ConnectTimeout elapses. The returned client is ready for use, typically as
// the backing client of a session.RedisStore.
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// Both redis:// and rediss:// (TLS) URLs are accepted. Anything else is
// rejected with ErrFailedToParseRedisConnString.
//
// # Usage
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := session.NewRedisStore(client)
//	check := redis.Healthcheck(client)
//
// # Errors
//
//   - ErrEmptyConnectionURL: no URL configured
//   - ErrFailedToParseRedisConnString: malformed URL or unsupported scheme
//   - ErrRedisNotReady: the server did not answer a ping within the retry budget
//   - ErrHealthcheckFailed: a health check ping failed
package redis
