package repository

import (
	"context"
	"errors"
	"fmt"

	"legal_consult_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition message store
type MessageRepository interface {
	EnsureIndexes(ctx context.Context) error
	// Insert 由 server 指定 timestamp 與 seq 後寫入，結果回填到 msg
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error)
	// FindByConversation 依 (timestamp, seq) 由舊到新
	FindByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error)
	MarkRead(ctx context.Context, messageIDs []string) (int64, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error)
}

type messageRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll:     db.Collection("messages"),
		counters: db.Collection("message_counters"),
	}
}

func (r *messageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversation_id", Value: 1},
			{Key: "timestamp", Value: 1},
			{Key: "seq", Value: 1},
		},
	})
	return err
}

type counter struct {
	Seq int64 `bson:"seq"`
	TS  int64 `bson:"ts"`
}

// nextPosition 以單一 findOneAndUpdate 取得下一個 seq 與不倒退的 server 時間
func (r *messageRepository) nextPosition(ctx context.Context, conversationID string) (counter, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "seq", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$seq", 0}}}, 1,
			}}}},
			{Key: "ts", Value: bson.D{{Key: "$max", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$ts", 0}}},
				bson.D{{Key: "$toLong", Value: "$$NOW"}},
			}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var c counter
	err := r.counters.FindOneAndUpdate(ctx, bson.M{"_id": conversationID}, update, opts).Decode(&c)
	return c, err
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	pos, err := r.nextPosition(ctx, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("assign message position: %w", err)
	}
	msg.Seq = pos.Seq
	msg.Timestamp = pos.TS
	if msg.Attachments == nil {
		msg.Attachments = []domain.Attachment{}
	}

	_, err = r.coll.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	err := r.coll.FindOne(ctx, bson.M{"_id": messageID}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "seq", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}

	msgs := []domain.ChatMessage{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, messageIDs []string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": messageIDs}, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "sender_id": bson.M{"$ne": readerID}, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
