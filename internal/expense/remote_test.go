package expense

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestDecimal128Conversion(t *testing.T) {
	for _, amount := range []string{"0", "120.5", "15000", "0.01", "123456789.99"} {
		t.Run(amount, func(t *testing.T) {
			d128, err := toDecimal128(decimal.RequireFromString(amount))
			require.NoError(t, err)

			back, err := fromDecimal128(d128)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(amount).Equal(back), back.String())
		})
	}
}

func TestExpenseDocumentToExpense(t *testing.T) {
	oid := primitive.NewObjectID()
	price, err := primitive.ParseDecimal128("99.90")
	require.NoError(t, err)
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	e, err := expenseDocument{
		ID:        oid,
		UserID:    "user-1",
		Title:     "Books",
		Price:     price,
		Category:  "Education",
		Date:      "2024-03-01",
		CreatedAt: created,
	}.toExpense()
	require.NoError(t, err)

	assert.Equal(t, oid.Hex(), e.ID)
	assert.Equal(t, "user-1", e.UserID)
	assert.Equal(t, "99.9", e.Price.String())
	assert.Equal(t, created, e.CreatedAt)
}

func mustDecimal128(t testing.TB, value string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(value)
	require.NoError(t, err)
	return d
}

func sortKeys(t testing.TB, raw bson.Raw) bson.D {
	t.Helper()
	var sort bson.D
	require.NoError(t, bson.Unmarshal(raw.Lookup("sort").Document(), &sort))
	return sort
}

func TestRemoteRepositoryExpenses(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	created := time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC)

	mt.Run("list filters by owner newest first", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)
		rent, food := primitive.NewObjectID(), primitive.NewObjectID()
		ns := mt.DB.Name() + "." + expensesCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: rent}, {Key: "userId", Value: "user-1"}, {Key: "title", Value: "Rent"},
				{Key: "price", Value: mustDecimal128(mt, "15000")}, {Key: "category", Value: "Rent"},
				{Key: "date", Value: "2024-03-02"}, {Key: "createdAt", Value: created},
			},
			bson.D{
				{Key: "_id", Value: food}, {Key: "userId", Value: "user-1"}, {Key: "title", Value: "Lunch"},
				{Key: "price", Value: mustDecimal128(mt, "120.50")}, {Key: "category", Value: "Food"},
				{Key: "date", Value: "2024-03-01"}, {Key: "description", Value: "office"}, {Key: "createdAt", Value: created},
			},
		))

		expenses, err := repo.ListExpenses(ctx, "user-1")
		require.NoError(mt, err)
		require.Len(mt, expenses, 2)
		assert.Equal(mt, rent.Hex(), expenses[0].ID)
		assert.Equal(mt, "Lunch", expenses[1].Title)
		assert.True(mt, decimal.RequireFromString("120.5").Equal(expenses[1].Price))
		assert.Equal(mt, "office", expenses[1].Description)
		assert.True(mt, created.Equal(expenses[1].CreatedAt))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, expensesCollection, cmd.Lookup("find").StringValue())
		filter, err := cmd.Lookup("filter").Document().Elements()
		require.NoError(mt, err)
		require.Len(mt, filter, 1)
		assert.Equal(mt, "userId", filter[0].Key())
		assert.Equal(mt, "user-1", filter[0].Value().StringValue())

		sort := sortKeys(mt, cmd)
		require.Len(mt, sort, 2)
		assert.Equal(mt, "date", sort[0].Key)
		assert.EqualValues(mt, -1, sort[0].Value)
		assert.Equal(mt, "createdAt", sort[1].Key)
		assert.EqualValues(mt, -1, sort[1].Value)
	})

	mt.Run("list surfaces query errors", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad query"}))

		_, err := repo.ListExpenses(ctx, "user-1")
		assert.ErrorContains(mt, err, "failed to query expenses")
	})

	mt.Run("add inserts an owned document", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		added, err := repo.AddExpense(ctx, Expense{
			UserID:    "user-1",
			Title:     "Books",
			Price:     decimal.RequireFromString("99.90"),
			Category:  "Education",
			Date:      "2024-03-01",
			CreatedAt: created,
		})
		require.NoError(mt, err)
		assert.Len(mt, added.ID, 24)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, expensesCollection, cmd.Lookup("insert").StringValue())
		doc := cmd.Lookup("documents", "0").Document()
		assert.Equal(mt, added.ID, doc.Lookup("_id").ObjectID().Hex())
		assert.Equal(mt, "user-1", doc.Lookup("userId").StringValue())
		assert.Equal(mt, "99.9", doc.Lookup("price").Decimal128().String())
	})

	mt.Run("delete is scoped to the owner", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		require.NoError(mt, repo.DeleteExpense(ctx, "user-2", id.Hex()))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, expensesCollection, cmd.Lookup("delete").StringValue())
		q := cmd.Lookup("deletes", "0", "q").Document()
		assert.Equal(mt, id, q.Lookup("_id").ObjectID())
		assert.Equal(mt, "user-2", q.Lookup("userId").StringValue())
	})

	mt.Run("delete rejects ids that are not document ids", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)

		assert.Error(mt, repo.DeleteExpense(ctx, "user-1", "not-an-object-id"))
		assert.Empty(mt, mt.GetAllStartedEvents())
	})
}

func TestRemoteRepositoryBudget(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := func(mt *mtest.T) string { return mt.DB.Name() + "." + budgetsCollection }

	tests := []struct {
		name  string
		batch []bson.D
		want  string
	}{
		{"missing budget reads as zero", nil, "0"},
		{"stored budget", []bson.D{{{Key: "_id", Value: "user-1"}, {Key: "amount", Value: mustDecimal128(t, "25000.75")}}}, "25000.75"},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			repo := NewRemoteRepository(mt.DB)
			mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, tt.batch...))

			amount, err := repo.GetBudget(ctx, "user-1")
			require.NoError(mt, err)
			assert.Equal(mt, tt.want, amount.String())

			cmd := mt.GetStartedEvent().Command
			assert.Equal(mt, budgetsCollection, cmd.Lookup("find").StringValue())
			assert.Equal(mt, "user-1", cmd.Lookup("filter", "_id").StringValue())
		})
	}

	mt.Run("read errors are returned", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad query"}))

		_, err := repo.GetBudget(ctx, "user-1")
		assert.ErrorContains(mt, err, "failed to read budget")
	})

	mt.Run("set upserts by owner", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		require.NoError(mt, repo.SetBudget(ctx, "user-1", decimal.RequireFromString("2500.5")))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, budgetsCollection, cmd.Lookup("update").StringValue())
		update := cmd.Lookup("updates", "0").Document()
		assert.Equal(mt, "user-1", update.Lookup("q", "_id").StringValue())
		assert.True(mt, update.Lookup("upsert").Boolean())
		assert.Equal(mt, "2500.5", update.Lookup("u", "$set", "amount").Decimal128().String())
	})
}

func TestRemoteRepositoryCards(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("list keeps insertion order", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+cardsCollection, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: id}, {Key: "userId", Value: "user-1"}, {Key: "holder", Value: "Jane"},
				{Key: "number", Value: "4111111111111234"}, {Key: "expiry", Value: "12/27"}, {Key: "brand", Value: "visa"},
			},
		))

		cards, err := repo.ListCards(ctx, "user-1")
		require.NoError(mt, err)
		require.Len(mt, cards, 1)
		assert.Equal(mt, id.Hex(), cards[0].ID)
		assert.Equal(mt, "4111 **** **** 1234", cards[0].MaskedNumber())

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, cardsCollection, cmd.Lookup("find").StringValue())
		assert.Equal(mt, "user-1", cmd.Lookup("filter", "userId").StringValue())
		sort := sortKeys(mt, cmd)
		require.Len(mt, sort, 1)
		assert.Equal(mt, "createdAt", sort[0].Key)
		assert.EqualValues(mt, 1, sort[0].Value)
	})

	mt.Run("add inserts an owned card", func(mt *mtest.T) {
		repo := NewRemoteRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		card, err := repo.AddCard(ctx, Card{UserID: "user-1", Holder: "Jane", Number: "4111111111111234", Expiry: "12/27", Brand: "visa"})
		require.NoError(mt, err)

		doc := mt.GetStartedEvent().Command.Lookup("documents", "0").Document()
		assert.Equal(mt, card.ID, doc.Lookup("_id").ObjectID().Hex())
		assert.Equal(mt, "user-1", doc.Lookup("userId").StringValue())
	})
}
