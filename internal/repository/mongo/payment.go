package mongo

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sublytics/sublytics/internal/config"
	"github.com/sublytics/sublytics/internal/domain/payment"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
	"github.com/sublytics/sublytics/internal/types"
)

type paymentRepository struct {
	walletColl *mongo.Collection
	cardColl   *mongo.Collection
	logger     *logger.Logger
}

// NewPaymentRepository builds the repository over both providers' payment
// collections.
func NewPaymentRepository(client *mongo.Client, cfg *config.Configuration, log *logger.Logger) payment.Repository {
	charts := client.Database(cfg.Mongo.ChartsDB)
	return &paymentRepository{
		walletColl: charts.Collection(cfg.Mongo.WalletPaymentsCollection),
		cardColl:   charts.Collection(cfg.Mongo.CardPaymentsCollection),
		logger:     log,
	}
}

// paymentDoc is the decode target for both payment shapes. Amounts are
// stored as doubles and converted to decimal after decoding.
type paymentDoc struct {
	CreatedAt           string  `bson:"created"`
	ApprovedAt          string  `bson:"date_approved"`
	Amount              float64 `bson:"amount"`
	Currency            string  `bson:"currency"`
	Status              string  `bson:"status"`
	Description         string  `bson:"description"`
	OperationType       string  `bson:"operation_type"`
	StatementDescriptor string  `bson:"statement_descriptor"`
}

func (d *paymentDoc) toPayment() *payment.Payment {
	return &payment.Payment{
		CreatedAt:           d.CreatedAt,
		ApprovedAt:          d.ApprovedAt,
		Amount:              decimal.NewFromFloat(d.Amount),
		Currency:            d.Currency,
		Status:              d.Status,
		Description:         d.Description,
		OperationType:       d.OperationType,
		StatementDescriptor: d.StatementDescriptor,
	}
}

// windowDates returns the window as [start, endExclusive) date literals.
// Payment timestamps are stored as ISO strings, so plain date prefixes
// compare correctly.
func windowDates(window types.DateWindow) (string, string, error) {
	start, end, err := window.Bounds()
	if err != nil {
		return "", "", err
	}
	return start.Format(types.BucketLayoutDay), end.Format(types.BucketLayoutDay), nil
}

func (r *paymentRepository) ListWalletPayments(ctx context.Context, window types.DateWindow) ([]*payment.Payment, error) {
	start, end, err := windowDates(window)
	if err != nil {
		return nil, err
	}

	// The wallet provider writes transaction_amount/date_created; the
	// projection renames them onto the shared payment shape.
	pipeline := []bson.M{
		{"$match": bson.M{
			"date_created": bson.M{"$gte": start, "$lt": end},
		}},
		{"$project": bson.M{
			"_id":            0,
			"created":        "$date_created",
			"date_approved":  1,
			"description":    1,
			"operation_type": 1,
			"status":         1,
			"amount":         "$transaction_amount",
		}},
	}
	return r.listPayments(ctx, r.walletColl, pipeline)
}

func (r *paymentRepository) WalletApprovedTotal(ctx context.Context, window types.DateWindow) (decimal.Decimal, error) {
	start, end, err := windowDates(window)
	if err != nil {
		return decimal.Zero, err
	}

	pipeline := []bson.M{
		{"$match": bson.M{
			"status":        payment.StatusApproved,
			"date_approved": bson.M{"$gte": start, "$lt": end},
		}},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$transaction_amount"},
		}},
		{"$project": bson.M{"total": 1}},
	}

	cursor, err := r.walletColl.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Errorw("failed to sum wallet payments", "error", err)
		return decimal.Zero, ierr.WithError(err).
			WithHint("wallet income query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return decimal.Zero, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if len(result) == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(result[0].Total), nil
}

func (r *paymentRepository) CardIncomeByCurrency(ctx context.Context, window types.DateWindow) ([]payment.CurrencyTotal, error) {
	start, end, err := windowDates(window)
	if err != nil {
		return nil, err
	}

	pipeline := []bson.M{
		{"$match": bson.M{
			"status":  payment.StatusSucceeded,
			"created": bson.M{"$gte": start, "$lt": end},
		}},
		{"$group": bson.M{
			"_id":   "$currency",
			"total": bson.M{"$sum": "$amount"},
		}},
		{"$project": bson.M{
			"currency": "$_id",
			"total":    1,
		}},
	}

	cursor, err := r.cardColl.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Errorw("failed to sum card payments", "error", err)
		return nil, ierr.WithError(err).
			WithHint("card income query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Currency string  `bson:"currency"`
		Total    float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	totals := make([]payment.CurrencyTotal, 0, len(docs))
	for _, doc := range docs {
		totals = append(totals, payment.CurrencyTotal{
			Currency: doc.Currency,
			Total:    decimal.NewFromFloat(doc.Total),
		})
	}
	return totals, nil
}

func (r *paymentRepository) ListCardSubscriptionPayments(ctx context.Context, window types.DateWindow) ([]*payment.Payment, error) {
	return r.listCardByDescriptor(ctx, window, bson.M{"$ne": nil})
}

func (r *paymentRepository) ListCardExtraCreditPayments(ctx context.Context, window types.DateWindow) ([]*payment.Payment, error) {
	return r.listCardByDescriptor(ctx, window, bson.M{"$eq": nil})
}

// listCardByDescriptor splits succeeded card charges on their statement
// descriptor: recurring subscription charges carry one, one-off credit
// top-ups do not.
func (r *paymentRepository) listCardByDescriptor(ctx context.Context, window types.DateWindow, descriptorFilter bson.M) ([]*payment.Payment, error) {
	start, end, err := windowDates(window)
	if err != nil {
		return nil, err
	}

	pipeline := []bson.M{
		{"$match": bson.M{
			"status":               payment.StatusSucceeded,
			"created":              bson.M{"$gte": start, "$lt": end},
			"statement_descriptor": descriptorFilter,
		}},
		{"$project": bson.M{
			"_id":                  0,
			"created":              1,
			"statement_descriptor": 1,
			"amount":               1,
			"currency":             1,
		}},
	}
	return r.listPayments(ctx, r.cardColl, pipeline)
}

func (r *paymentRepository) listPayments(ctx context.Context, coll *mongo.Collection, pipeline []bson.M) ([]*payment.Payment, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Errorw("failed to query payments", "collection", coll.Name(), "error", err)
		return nil, ierr.WithError(err).
			WithHint("payment query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var docs []*paymentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, ierr.WithError(err).
			WithHint("payment documents could not be decoded").
			Mark(ierr.ErrDatabase)
	}

	payments := make([]*payment.Payment, 0, len(docs))
	for _, doc := range docs {
		payments = append(payments, doc.toPayment())
	}
	return payments, nil
}
