// Package pg connects to PostgreSQL through a pgx pool, applies goose
// migrations and carries transactions through a context so the outbox store
// can write notifications in the same transaction as domain data.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, logger); err != nil {
//		return err
//	}
//
// # Transactions
//
// Attach a transaction to the context with WithTx. Stores that understand it
// (see integration/outbox/pgoutbox) pick it up through QuerierFromContext:
//
//	tx, err := pool.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback(ctx)
//
//	ctx = pg.WithTx(ctx, tx)
//	if _, err := tx.Exec(ctx, insertOrderSQL, order.ID); err != nil {
//		return err
//	}
//	if err := outbox.Store(ctx, OrderPlaced{Base: notification.NewBase("orders"), OrderID: order.ID}); err != nil {
//		return err
//	}
//	return tx.Commit(ctx)
//
// # Errors
//
// Connection and migration failures wrap the sentinel errors in errors.go.
// IsNotFoundError, IsDuplicateKeyError, IsForeignKeyViolationError and
// IsTxClosedError classify driver errors.
package pg
