package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatali-fataliyev/expense_manager/internal/config"
	"github.com/fatali-fataliyev/expense_manager/logging"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	expensesCollection = "expenses"
	cardsCollection    = "cards"
	budgetsCollection  = "budgets"
)

// ConnectMongo dials the document store and verifies it answers within cfg.Timeout.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	logging.Logger.Infof("Connected to MongoDB database %q", cfg.Database)
	return client, nil
}

type RemoteRepository struct {
	expenses *mongo.Collection
	cards    *mongo.Collection
	budgets  *mongo.Collection
}

func NewRemoteRepository(db *mongo.Database) *RemoteRepository {
	return &RemoteRepository{
		expenses: db.Collection(expensesCollection),
		cards:    db.Collection(cardsCollection),
		budgets:  db.Collection(budgetsCollection),
	}
}

func (r *RemoteRepository) Name() string {
	return "remote"
}

type expenseDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	UserID      string               `bson:"userId"`
	Title       string               `bson:"title"`
	Price       primitive.Decimal128 `bson:"price"`
	Category    string               `bson:"category"`
	Date        string               `bson:"date"`
	Description string               `bson:"description,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

type cardDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Holder    string             `bson:"holder"`
	Number    string             `bson:"number"`
	Expiry    string             `bson:"expiry"`
	Brand     string             `bson:"brand"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type budgetDocument struct {
	UserID    string               `bson:"_id"`
	Amount    primitive.Decimal128 `bson:"amount"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func (doc expenseDocument) toExpense() (Expense, error) {
	price, err := fromDecimal128(doc.Price)
	if err != nil {
		return Expense{}, fmt.Errorf("expense %s has invalid price: %w", doc.ID.Hex(), err)
	}
	return Expense{
		ID:          doc.ID.Hex(),
		UserID:      doc.UserID,
		Title:       doc.Title,
		Price:       price,
		Category:    doc.Category,
		Date:        doc.Date,
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func (r *RemoteRepository) ListExpenses(ctx context.Context, userID string) ([]Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := r.expenses.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []expenseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode expenses: %w", err)
	}

	expenses := make([]Expense, 0, len(docs))
	for _, doc := range docs {
		e, err := doc.toExpense()
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (r *RemoteRepository) AddExpense(ctx context.Context, e Expense) (Expense, error) {
	price, err := toDecimal128(e.Price)
	if err != nil {
		return Expense{}, fmt.Errorf("failed to encode price: %w", err)
	}

	doc := expenseDocument{
		ID:          primitive.NewObjectID(),
		UserID:      e.UserID,
		Title:       e.Title,
		Price:       price,
		Category:    e.Category,
		Date:        e.Date,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if _, err := r.expenses.InsertOne(ctx, doc); err != nil {
		return Expense{}, fmt.Errorf("failed to insert expense: %w", err)
	}

	e.ID = doc.ID.Hex()
	return e, nil
}

func (r *RemoteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("expense id %q is not a document id: %w", id, err)
	}
	if _, err := r.expenses.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID}); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func (r *RemoteRepository) GetBudget(ctx context.Context, userID string) (decimal.Decimal, error) {
	var doc budgetDocument
	err := r.budgets.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to read budget: %w", err)
	}
	return fromDecimal128(doc.Amount)
}

func (r *RemoteRepository) SetBudget(ctx context.Context, userID string, amount decimal.Decimal) error {
	value, err := toDecimal128(amount)
	if err != nil {
		return fmt.Errorf("failed to encode budget: %w", err)
	}

	update := bson.M{"$set": bson.M{"amount": value, "updatedAt": time.Now().UTC()}}
	if _, err := r.budgets.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to write budget: %w", err)
	}
	return nil
}

func (r *RemoteRepository) ListCards(ctx context.Context, userID string) ([]Card, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.cards.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []cardDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}

	cards := make([]Card, 0, len(docs))
	for _, doc := range docs {
		cards = append(cards, Card{
			ID:        doc.ID.Hex(),
			UserID:    doc.UserID,
			Holder:    doc.Holder,
			Number:    doc.Number,
			Expiry:    doc.Expiry,
			Brand:     doc.Brand,
			CreatedAt: doc.CreatedAt,
		})
	}
	return cards, nil
}

func (r *RemoteRepository) AddCard(ctx context.Context, c Card) (Card, error) {
	doc := cardDocument{
		ID:        primitive.NewObjectID(),
		UserID:    c.UserID,
		Holder:    c.Holder,
		Number:    c.Number,
		Expiry:    c.Expiry,
		Brand:     c.Brand,
		CreatedAt: c.CreatedAt,
	}
	if _, err := r.cards.InsertOne(ctx, doc); err != nil {
		return Card{}, fmt.Errorf("failed to insert card: %w", err)
	}
	c.ID = doc.ID.Hex()
	return c, nil
}
