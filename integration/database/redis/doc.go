// Package redis creates go-redis clients with connection verification and
// retry, and exposes a health check. The redis outbox store
// (integration/outbox/redisoutbox) is built on the client returned by Connect.
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
// Both redis:// and rediss:// (TLS) URLs are accepted.
package redis
