package ports

import "context"

// Tx is an opaque transaction handle. The sqlite layer puts a *gorm.DB here;
// repositories unwrap it themselves.
type Tx interface{}

// UnitOfWork runs fn inside a database transaction. A nil return commits,
// any error rolls back. Nested WithTx calls join the transaction already
// carried by ctx instead of opening a second one, which is what lets a
// ledger write and a status transition share one commit.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// WithTxContext attaches tx to ctx so repositories called under WithTx
// operate on the transaction rather than the root connection.
func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the ambient transaction handle, or nil outside one.
func TxFromContext(ctx context.Context) Tx {
	return ctx.Value(txKey{})
}
