package repository

import (
	"context"
	"database/sql"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoStore はMongoDBをバックエンドとするStoreを構築する。
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:        NewMongoUserRepo(db),
		Jobs:         NewMongoJobRepo(db),
		Applications: NewMongoApplicationRepo(db),
		pinger: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		closer: client.Disconnect,
	}
}

// NewPostgresStore はPostgreSQLをバックエンドとするStoreを構築する。
func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Users:        NewPostgresUserRepo(db),
		Jobs:         NewPostgresJobRepo(db),
		Applications: NewPostgresApplicationRepo(db),
		pinger:       db.PingContext,
		closer: func(context.Context) error {
			return db.Close()
		},
	}
}

// NewStore は任意のリポジトリ実装からStoreを構築する。テストや組み込み用途向け。
func NewStore(users UserRepository, jobs JobRepository, apps ApplicationRepository) *Store {
	return &Store{Users: users, Jobs: jobs, Applications: apps}
}
