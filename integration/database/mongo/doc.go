// Package mongo creates MongoDB clients with connection verification and
// retry, and exposes a health check. The mongo outbox store
// (integration/outbox/mongooutbox) uses the client returned by New.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect(context.Background())
//
// Configuration comes from MONGODB_* environment variables; see Config.
package mongo
