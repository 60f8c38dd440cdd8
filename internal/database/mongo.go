package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions はMongoDB接続のパラメータ。
type MongoOptions struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
}

// ConnectMongo はMongoDBクライアントを生成し、対象データベースのハンドルを返す。
// mongo.Connectはサーバーへの到達を待たないため、疎通確認にはPingを使用すること。
func ConnectMongo(ctx context.Context, opts MongoOptions) (*mongo.Client, *mongo.Database, error) {
	if opts.URI == "" {
		return nil, nil, fmt.Errorf("mongo URI is empty")
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.ConnectTimeout).
		SetSocketTimeout(opts.SocketTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect mongo: %w", err)
	}

	return client, client.Database(opts.Database), nil
}

// mongoIndexes はコレクションごとに作成するインデックス定義。
func mongoIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
			},
		},
		"jobs": {
			{
				Keys:    bson.D{{Key: "expired", Value: 1}, {Key: "jobPostedOn", Value: -1}},
				Options: options.Index().SetName("idx_jobs_expired_posted_on"),
			},
			{
				Keys:    bson.D{{Key: "postedBy", Value: 1}},
				Options: options.Index().SetName("idx_jobs_posted_by"),
			},
		},
		"applications": {
			{
				Keys:    bson.D{{Key: "employerID.user", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_applications_employer"),
			},
			{
				Keys:    bson.D{{Key: "applicantID.user", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_applications_applicant"),
			},
		},
	}
}

// EnsureIndexes は必要なインデックスを作成する。既存の同名インデックスはそのまま残る。
// usersのemail一意インデックスがメールアドレス重複検出の根拠となる。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range mongoIndexes() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
