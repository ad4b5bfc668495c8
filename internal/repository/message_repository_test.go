package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/campus-api/internal/models"
)

type fakeMessageCollection struct {
	inserted    []interface{}
	docs        []interface{}
	one         interface{}
	lastFilter  interface{}
	lastUpdate  interface{}
	matched     int64
	countResult int64
}

func (f *fakeMessageCollection) InsertOne(_ context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	f.inserted = append(f.inserted, doc)
	return &mongo.InsertOneResult{}, nil
}

func (f *fakeMessageCollection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	f.lastFilter = filter
	return mongo.NewCursorFromDocuments(f.docs, nil, nil)
}

func (f *fakeMessageCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	f.lastFilter = filter
	if f.one == nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(f.one, nil, nil)
}

func (f *fakeMessageCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.lastFilter = filter
	f.lastUpdate = update
	return &mongo.UpdateResult{MatchedCount: f.matched}, nil
}

func (f *fakeMessageCollection) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	f.lastFilter = filter
	return f.countResult, nil
}

func TestMessageRepositoryInsertAssignsDefaults(t *testing.T) {
	coll := &fakeMessageCollection{}
	repo := &MessageRepository{coll: coll}

	msg := &models.Message{SenderID: "admin-1", Subject: "Exam", Body: "Tomorrow"}
	require.NoError(t, repo.Insert(context.Background(), msg))

	assert.False(t, msg.ID.IsZero())
	assert.False(t, msg.CreatedAt.IsZero())
	assert.NotNil(t, msg.ReadBy)
	assert.Len(t, coll.inserted, 1)
}

func TestMessageRepositoryInboxFilter(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	coll := &fakeMessageCollection{docs: []interface{}{
		models.Message{ID: primitive.NewObjectID(), Subject: "Hello", Body: "Body", TargetType: models.MessageTargetUser, TargetUser: "stu-1", ReadBy: []string{}, CreatedAt: created},
	}}
	repo := &MessageRepository{coll: coll}

	scope := models.InboxScope{UserID: "stu-1", Role: models.RoleStudent, ClassIDs: []string{"CSE-A"}}
	messages, err := repo.Inbox(context.Background(), scope, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Hello", messages[0].Subject)

	filter, ok := coll.lastFilter.(bson.M)
	require.True(t, ok)
	clauses, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, clauses, 3)
}

func TestMessageRepositoryInboxWithoutClasses(t *testing.T) {
	coll := &fakeMessageCollection{}
	repo := &MessageRepository{coll: coll}

	messages, err := repo.Inbox(context.Background(), models.InboxScope{UserID: "hr-1", Role: models.RoleHR}, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)

	filter := coll.lastFilter.(bson.M)
	assert.Len(t, filter["$or"].(bson.A), 2)
}

func TestMessageRepositoryUnreadCountExcludesRead(t *testing.T) {
	coll := &fakeMessageCollection{countResult: 4}
	repo := &MessageRepository{coll: coll}

	count, err := repo.UnreadCount(context.Background(), models.InboxScope{UserID: "fac-1", Role: models.RoleFaculty})
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	filter := coll.lastFilter.(bson.M)
	assert.Equal(t, bson.M{"$ne": "fac-1"}, filter["readBy"])
}

func TestMessageRepositoryGetByIDMissing(t *testing.T) {
	repo := &MessageRepository{coll: &fakeMessageCollection{}}

	_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMessageRepositoryGetByID(t *testing.T) {
	id := primitive.NewObjectID()
	coll := &fakeMessageCollection{one: models.Message{ID: id, Subject: "Notice", ReadBy: []string{"u-1"}}}
	repo := &MessageRepository{coll: coll}

	msg, err := repo.GetByID(context.Background(), id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Notice", msg.Subject)
	assert.Equal(t, []string{"u-1"}, msg.ReadBy)
}

func TestMessageRepositoryMarkRead(t *testing.T) {
	coll := &fakeMessageCollection{matched: 1}
	repo := &MessageRepository{coll: coll}

	require.NoError(t, repo.MarkRead(context.Background(), primitive.NewObjectID().Hex(), "stu-1"))
	assert.Equal(t, bson.M{"$addToSet": bson.M{"readBy": "stu-1"}}, coll.lastUpdate)

	coll.matched = 0
	err := repo.MarkRead(context.Background(), primitive.NewObjectID().Hex(), "stu-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
