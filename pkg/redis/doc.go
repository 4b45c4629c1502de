// Package redis connects the application to a Redis server with retry and
// exposes a healthcheck probe. The returned client plugs into the
// redis-backed stores: respcache.NewRedisStore, ratelimit.NewRedisStore,
// and session.NewRedisStore.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	app := typedapi.New(
//		typedapi.WithResponseCache(respcache.NewRedisStore(client, "cache"), respcache.DefaultConfig()),
//	)
package redis
