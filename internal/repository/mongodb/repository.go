package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/repository"
)

const (
	tablesCollection   = "tables"
	billsCollection    = "bills"
	revenueCollection  = "daily_revenue"
	settingsCollection = "settings"
	menuCollection     = "menu_items"
	countersCollection = "counters"
)

// MongoDBRepository implements repository.Store on MongoDB. Every guarantee
// the services rely on is a single-document atomic operation, so no replica
// set transactions are needed.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(billsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "business_date", Value: 1}, {Key: "sequence", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "revenue_posted", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create bill indexes: %w", err)
	}
	return nil
}

// EnsureTables inserts every table that does not exist yet.
func (r *MongoDBRepository) EnsureTables(ctx context.Context, tables []models.Table) (int, error) {
	if len(tables) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(tables))
	for _, table := range tables {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": table.Number}).
			SetUpdate(bson.M{"$setOnInsert": table}).
			SetUpsert(true))
	}

	res, err := r.db.Collection(tablesCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to provision tables: %w", err)
	}
	return int(res.UpsertedCount), nil
}

func (r *MongoDBRepository) GetTable(ctx context.Context, number int) (models.Table, error) {
	var table models.Table
	err := r.db.Collection(tablesCollection).FindOne(ctx, bson.M{"_id": number}).Decode(&table)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Table{}, fmt.Errorf("table %d: %w", number, models.ErrNotFound)
	}
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to load table %d: %w", number, err)
	}
	return table, nil
}

func (r *MongoDBRepository) ListTables(ctx context.Context) ([]models.Table, error) {
	cursor, err := r.db.Collection(tablesCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	tables := make([]models.Table, 0)
	if err := cursor.All(ctx, &tables); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	return tables, nil
}

// UpdateTable replaces the table only if its stored version still matches.
func (r *MongoDBRepository) UpdateTable(ctx context.Context, table models.Table) (models.Table, error) {
	expected := table.Version
	next := table.Clone()
	next.Version = expected + 1

	coll := r.db.Collection(tablesCollection)
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": table.Number, "version": expected}, next)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to update table %d: %w", table.Number, err)
	}
	if res.MatchedCount == 0 {
		count, err := coll.CountDocuments(ctx, bson.M{"_id": table.Number})
		if err != nil {
			return models.Table{}, fmt.Errorf("failed to check table %d: %w", table.Number, err)
		}
		if count == 0 {
			return models.Table{}, fmt.Errorf("table %d: %w", table.Number, models.ErrNotFound)
		}
		return models.Table{}, fmt.Errorf("table %d at version %d: %w", table.Number, expected, repository.ErrVersionConflict)
	}
	return next, nil
}

func (r *MongoDBRepository) InsertBill(ctx context.Context, bill models.Bill) error {
	_, err := r.db.Collection(billsCollection).InsertOne(ctx, bill)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("bill %s: %w", bill.Number, repository.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert bill %s: %w", bill.Number, err)
	}
	return nil
}

func (r *MongoDBRepository) GetBill(ctx context.Context, number string) (models.Bill, error) {
	var bill models.Bill
	err := r.db.Collection(billsCollection).FindOne(ctx, bson.M{"_id": number}).Decode(&bill)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Bill{}, fmt.Errorf("bill %s: %w", number, models.ErrNotFound)
	}
	if err != nil {
		return models.Bill{}, fmt.Errorf("failed to load bill %s: %w", number, err)
	}
	return bill, nil
}

func (r *MongoDBRepository) ListBillsByDate(ctx context.Context, businessDate string) ([]models.Bill, error) {
	return r.findBills(ctx, bson.M{"business_date": businessDate})
}

func (r *MongoDBRepository) ListUnpostedBills(ctx context.Context) ([]models.Bill, error) {
	return r.findBills(ctx, bson.M{"revenue_posted": false})
}

// billOrder sorts numerically by sequence; "-10000" sorts before "-9999" as a string.
var billOrder = bson.D{{Key: "business_date", Value: 1}, {Key: "sequence", Value: 1}, {Key: "_id", Value: 1}}

func (r *MongoDBRepository) findBills(ctx context.Context, filter bson.M) ([]models.Bill, error) {
	cursor, err := r.db.Collection(billsCollection).Find(ctx, filter, options.Find().SetSort(billOrder))
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}

	bills := make([]models.Bill, 0)
	if err := cursor.All(ctx, &bills); err != nil {
		return nil, fmt.Errorf("failed to decode bills: %w", err)
	}
	return bills, nil
}

func (r *MongoDBRepository) MarkBillPosted(ctx context.Context, number string) error {
	res, err := r.db.Collection(billsCollection).UpdateOne(ctx,
		bson.M{"_id": number},
		bson.M{"$set": bson.M{"revenue_posted": true}})
	if err != nil {
		return fmt.Errorf("failed to flag bill %s as posted: %w", number, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("bill %s: %w", number, models.ErrNotFound)
	}
	return nil
}

// MarkBillPaid flips a pending bill to paid and reports whether this call
// made the change; an already paid bill is returned unchanged.
func (r *MongoDBRepository) MarkBillPaid(ctx context.Context, number string, paidAt time.Time) (models.Bill, bool, error) {
	var bill models.Bill
	err := r.db.Collection(billsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": number, "payment_status": models.PaymentPending},
		bson.M{"$set": bson.M{"payment_status": models.PaymentPaid, "paid_at": paidAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&bill)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, err := r.GetBill(ctx, number)
		return current, false, err
	}
	if err != nil {
		return models.Bill{}, false, fmt.Errorf("failed to mark bill %s paid: %w", number, err)
	}
	return bill, true, nil
}

// PostBill makes sure the day's record exists, then increments it in one
// conditional update that only matches while billNumber is absent.
func (r *MongoDBRepository) PostBill(ctx context.Context, businessDate, billNumber string, amountCents int64, now time.Time) (bool, error) {
	coll := r.db.Collection(revenueCollection)

	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": businessDate},
		bson.M{"$setOnInsert": bson.M{
			"revenue_cents": int64(0),
			"total_orders":  0,
			"bill_numbers":  bson.A{},
			"updated_at":    now,
		}},
		options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to open revenue record %s: %w", businessDate, err)
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": businessDate, "bill_numbers": bson.M{"$ne": billNumber}},
		bson.M{
			"$inc":  bson.M{"revenue_cents": amountCents, "total_orders": 1},
			"$push": bson.M{"bill_numbers": billNumber},
			"$set":  bson.M{"updated_at": now},
		})
	if err != nil {
		return false, fmt.Errorf("failed to post bill %s to revenue %s: %w", billNumber, businessDate, err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoDBRepository) GetRevenue(ctx context.Context, businessDate string) (models.RevenueRecord, error) {
	var record models.RevenueRecord
	err := r.db.Collection(revenueCollection).FindOne(ctx, bson.M{"_id": businessDate}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RevenueRecord{}, fmt.Errorf("revenue %s: %w", businessDate, models.ErrNotFound)
	}
	if err != nil {
		return models.RevenueRecord{}, fmt.Errorf("failed to load revenue %s: %w", businessDate, err)
	}
	record.Normalize()
	return record, nil
}

func (r *MongoDBRepository) ListRevenue(ctx context.Context, from, to string) ([]models.RevenueRecord, error) {
	cursor, err := r.db.Collection(revenueCollection).Find(ctx,
		bson.M{"_id": bson.M{"$gte": from, "$lte": to}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue %s..%s: %w", from, to, err)
	}

	records := make([]models.RevenueRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode revenue: %w", err)
	}
	for i := range records {
		records[i].Normalize()
	}
	return records, nil
}

func (r *MongoDBRepository) GetSettings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := r.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": models.SettingsID}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Settings{}, fmt.Errorf("settings: %w", models.ErrNotFound)
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// CreateSettings inserts settings only if absent and returns whatever is stored.
func (r *MongoDBRepository) CreateSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	settings.ID = models.SettingsID
	_, err := r.db.Collection(settingsCollection).UpdateOne(ctx,
		bson.M{"_id": models.SettingsID},
		bson.M{"$setOnInsert": settings},
		options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return models.Settings{}, fmt.Errorf("failed to create settings: %w", err)
	}
	return r.GetSettings(ctx)
}

func (r *MongoDBRepository) SaveSettings(ctx context.Context, settings models.Settings) error {
	settings.ID = models.SettingsID
	_, err := r.db.Collection(settingsCollection).ReplaceOne(ctx,
		bson.M{"_id": models.SettingsID},
		settings,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) InsertMenuItem(ctx context.Context, item models.MenuItem) error {
	_, err := r.db.Collection(menuCollection).InsertOne(ctx, item)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("menu item %s: %w", item.ID, repository.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert menu item: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetMenuItem(ctx context.Context, id string) (models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.Collection(menuCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.MenuItem{}, fmt.Errorf("menu item %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("failed to load menu item %s: %w", id, err)
	}
	return item, nil
}

func (r *MongoDBRepository) ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	query := bson.M{}
	if filter.AvailableOnly {
		query["available"] = true
	}

	cursor, err := r.db.Collection(menuCollection).Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}

	var all []models.MenuItem
	if err := cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("failed to decode menu items: %w", err)
	}

	items := make([]models.MenuItem, 0, len(all))
	for _, item := range all {
		if filter.Matches(item) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *MongoDBRepository) UpdateMenuItem(ctx context.Context, item models.MenuItem) error {
	res, err := r.db.Collection(menuCollection).ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("failed to update menu item %s: %w", item.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("menu item %s: %w", item.ID, models.ErrNotFound)
	}
	return nil
}

// NextSequence atomically increments and returns the counter for key.
func (r *MongoDBRepository) NextSequence(ctx context.Context, key string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence %s: %w", key, err)
	}
	return counter.Seq, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
