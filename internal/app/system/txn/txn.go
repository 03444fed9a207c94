// Package txn runs multi-document writes inside a MongoDB transaction.
//
// Transactions require a replica set or sharded cluster. Development setups
// often run a standalone mongod, so Run falls back to executing the function
// directly when the server reports that sessions or transactions are not
// available. Callers must keep fn idempotent for that reason.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes meaning transactions are unavailable on this deployment.
var unsupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // Unsupported on standalone
	263: true, // OperationNotSupportedInTransaction
}

// Run executes fn in a transaction on client. When the deployment cannot run
// transactions, fn is executed once without one and a debug line is logged.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runDirect(ctx, log, fn, err)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return runDirect(ctx, log, fn, err)
	}
	return err
}

func runDirect(ctx context.Context, log *zap.Logger, fn func(ctx context.Context) error, cause error) error {
	if log != nil {
		log.Debug("transactions unavailable, running without one", zap.Error(cause))
	}
	return fn(ctx)
}

// IsNotSupported reports whether err means the server cannot run sessions or
// transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return unsupportedCodes[ce.Code]
	}

	msg := strings.ToLower(err.Error())
	has := func(a, b string) bool { return strings.Contains(msg, a) && strings.Contains(msg, b) }
	return has("transaction", "replica set") ||
		has("session", "not supported") ||
		has("transaction", "session") ||
		strings.Contains(msg, "illegal operation")
}
