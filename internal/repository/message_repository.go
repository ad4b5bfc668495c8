package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/campus-api/internal/models"
)

// MessagesCollection is the Mongo collection holding direct messages and notifications.
const MessagesCollection = "messages"

type messageCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// MessageRepository stores messages in MongoDB. Missing documents surface as sql.ErrNoRows
// so services treat both stores alike.
type MessageRepository struct {
	coll messageCollection
}

// NewMessageRepository binds the repository to the messages collection of db.
func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(MessagesCollection)}
}

// EnsureMessageIndexes creates the indexes used by inbox and sent listings.
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(MessagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "targetType", Value: 1}, {Key: "targetUser", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "targetType", Value: 1}, {Key: "targetRole", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "targetType", Value: 1}, {Key: "targetClass", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	return nil
}

// Insert stores a message and assigns its id.
func (r *MessageRepository) Insert(ctx context.Context, message *models.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	if message.ReadBy == nil {
		message.ReadBy = []string{}
	}
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Inbox lists messages addressed to the reader directly, to its role or to one of its classes.
func (r *MessageRepository) Inbox(ctx context.Context, scope models.InboxScope, limit int64) ([]models.Message, error) {
	return r.find(ctx, inboxFilter(scope), limit, "inbox")
}

// Sent lists direct messages written by senderID.
func (r *MessageRepository) Sent(ctx context.Context, senderID string, limit int64) ([]models.Message, error) {
	filter := bson.M{"senderId": senderID, "kind": models.MessageKindDirect}
	return r.find(ctx, filter, limit, "sent")
}

// UnreadCount counts inbox messages the reader has not opened.
func (r *MessageRepository) UnreadCount(ctx context.Context, scope models.InboxScope) (int64, error) {
	filter := inboxFilter(scope)
	filter["readBy"] = bson.M{"$ne": scope.UserID}
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// GetByID fetches a single message.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	var message models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&message); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &message, nil
}

// MarkRead records that userID has read the message. Repeated calls are no-ops.
func (r *MessageRepository) MarkRead(ctx context.Context, id, userID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return sql.ErrNoRows
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$addToSet": bson.M{"readBy": userID}})
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if res.MatchedCount == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *MessageRepository) find(ctx context.Context, filter bson.M, limit int64, op string) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s messages: %w", op, err)
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode %s messages: %w", op, err)
	}
	return messages, nil
}

func inboxFilter(scope models.InboxScope) bson.M {
	clauses := bson.A{
		bson.M{"targetType": models.MessageTargetUser, "targetUser": scope.UserID},
		bson.M{"targetType": models.MessageTargetRole, "targetRole": scope.Role},
	}
	if len(scope.ClassIDs) > 0 {
		clauses = append(clauses, bson.M{"targetType": models.MessageTargetClass, "targetClass": bson.M{"$in": scope.ClassIDs}})
	}
	return bson.M{"$or": clauses}
}
