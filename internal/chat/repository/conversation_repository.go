package repository

import (
	"context"
	"errors"

	"legal_consult_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrConversationExists 同一組參與者的 1 對 1 對話已存在
var ErrConversationExists = errors.New("conversation already exists")

// ConversationRepository definition conversation store
type ConversationRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, conv *domain.Conversation) error
	FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error)
	FindPrivate(ctx context.Context, userA, userB string) (*domain.Conversation, error)
	// FindByParticipant 依 updated_at 由新到舊
	FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
	// UpdateLastMessage 只有在 msg 比目前 last_message 新時才覆寫
	UpdateLastMessage(ctx context.Context, msg *domain.ChatMessage) error
	IncrementUnread(ctx context.Context, conversationID string, userIDs []string) error
	// MarkLastMessageRead 輸入 conversation id -> 已送達的 message id
	// 只有 last_message 仍是那則訊息時才標為已讀並歸零 reader 未讀數
	MarkLastMessageRead(ctx context.Context, lastMessageIDs map[string]string, readerID string) error
	ResetUnread(ctx context.Context, conversationID, userID string) error
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create new mongo conversation repository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	})
	return err
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	_, err := r.coll.InsertOne(ctx, conv)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConversationExists
	}
	return err
}

func (r *conversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	return r.findOne(ctx, bson.M{"_id": conversationID})
}

func (r *conversationRepository) FindPrivate(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	return r.findOne(ctx, bson.M{"pair_key": domain.PairKey(userA, userB)})
}

func (r *conversationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, filter).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}

	convs := []domain.Conversation{}
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepository) UpdateLastMessage(ctx context.Context, msg *domain.ChatMessage) error {
	// seq 與 timestamp 同向遞增，比 seq 即可避免舊訊息覆蓋新訊息
	filter := bson.M{
		"_id": msg.ConversationID,
		"$or": bson.A{
			bson.M{"last_message": nil},
			bson.M{"last_message.seq": bson.M{"$lt": msg.Seq}},
		},
	}
	update := bson.M{
		"$set": bson.M{"last_message": msg},
		"$max": bson.M{"updated_at": msg.Timestamp},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}

func (r *conversationRepository) IncrementUnread(ctx context.Context, conversationID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	inc := bson.M{}
	for _, id := range userIDs {
		inc["unread_count."+id] = 1
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": conversationID}, bson.M{"$inc": inc})
	return err
}

func (r *conversationRepository) MarkLastMessageRead(ctx context.Context, lastMessageIDs map[string]string, readerID string) error {
	if len(lastMessageIDs) == 0 {
		return nil
	}
	update := bson.M{"$set": bson.M{
		"last_message.read":        true,
		"unread_count." + readerID: 0,
	}}
	models := make([]mongo.WriteModel, 0, len(lastMessageIDs))
	for convID, msgID := range lastMessageIDs {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				"_id":                    convID,
				"last_message._id":       msgID,
				"last_message.sender_id": bson.M{"$ne": readerID},
			}).
			SetUpdate(update))
	}
	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (r *conversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"unread_count." + userID: 0}},
	)
	return err
}
