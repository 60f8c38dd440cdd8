// Package database は求人掲示板のデータストア接続とスキーマ管理を提供する。
//
// 既定のMongoDBではConnectMongoで接続し、users・jobs・applicationsコレクションの
// インデックスをEnsureIndexesで作成する。PostgreSQLを選んだ場合はOpenPostgresで接続し、
// 同名のテーブルを埋め込みのマイグレーション（RunMigrations）で作成する。
package database
