package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/jobboard/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobsCollection は求人を格納するコレクション名。
const JobsCollection = "jobs"

// jobDocument はjobsコレクションのドキュメント表現。
// 未設定の給与フィールドはドキュメントから省略する。
type jobDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Country     string             `bson:"country"`
	City        string             `bson:"city"`
	Location    string             `bson:"location"`
	FixedSalary *int64             `bson:"fixedSalary,omitempty"`
	SalaryFrom  *int64             `bson:"salaryFrom,omitempty"`
	SalaryTo    *int64             `bson:"salaryTo,omitempty"`
	Expired     bool               `bson:"expired"`
	JobPostedOn time.Time          `bson:"jobPostedOn"`
	PostedBy    primitive.ObjectID `bson:"postedBy"`
}

func newJobDocument(job *model.Job) (jobDocument, error) {
	postedBy, err := primitive.ObjectIDFromHex(job.PostedBy)
	if err != nil {
		return jobDocument{}, fmt.Errorf("%w: postedBy %s", ErrInvalidID, job.PostedBy)
	}
	return jobDocument{
		Title:       job.Title,
		Description: job.Description,
		Category:    job.Category,
		Country:     job.Country,
		City:        job.City,
		Location:    job.Location,
		FixedSalary: job.FixedSalary,
		SalaryFrom:  job.SalaryFrom,
		SalaryTo:    job.SalaryTo,
		Expired:     job.Expired,
		JobPostedOn: job.JobPostedOn,
		PostedBy:    postedBy,
	}, nil
}

func (d *jobDocument) toModel() *model.Job {
	return &model.Job{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Country:     d.Country,
		City:        d.City,
		Location:    d.Location,
		FixedSalary: d.FixedSalary,
		SalaryFrom:  d.SalaryFrom,
		SalaryTo:    d.SalaryTo,
		Expired:     d.Expired,
		JobPostedOn: d.JobPostedOn,
		PostedBy:    d.PostedBy.Hex(),
	}
}

// MongoJobRepo はMongoDBを使用した求人リポジトリ。
type MongoJobRepo struct {
	coll *mongo.Collection
}

// NewMongoJobRepo はMongoJobRepoを生成する。
func NewMongoJobRepo(db *mongo.Database) *MongoJobRepo {
	return &MongoJobRepo{coll: db.Collection(JobsCollection)}
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *MongoJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	var doc jobDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return doc.toModel(), nil
}

// ListActive は募集中の求人を返す。
func (r *MongoJobRepo) ListActive(ctx context.Context) ([]*model.Job, error) {
	return r.find(ctx, bson.M{"expired": false})
}

// ListByPoster は指定ユーザーが投稿した求人を返す。
func (r *MongoJobRepo) ListByPoster(ctx context.Context, userID string) ([]*model.Job, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, userID)
	}
	return r.find(ctx, bson.M{"postedBy": oid})
}

// Create は求人を作成し、採番したIDをjob.IDに設定する。
func (r *MongoJobRepo) Create(ctx context.Context, job *model.Job) error {
	doc, err := newJobDocument(job)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	job.ID = doc.ID.Hex()
	return nil
}

// Update は求人ドキュメントを置き換える。
func (r *MongoJobRepo) Update(ctx context.Context, job *model.Job) error {
	oid, err := primitive.ObjectIDFromHex(job.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, job.ID)
	}
	doc, err := newJobDocument(job)
	if err != nil {
		return err
	}
	doc.ID = oid

	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc); err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// Delete は指定IDの求人を削除する。
func (r *MongoJobRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (r *MongoJobRepo) find(ctx context.Context, filter bson.M) ([]*model.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "jobPostedOn", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []jobDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}

	jobs := make([]*model.Job, 0, len(docs))
	for i := range docs {
		jobs = append(jobs, docs[i].toModel())
	}
	return jobs, nil
}

// compile-time interface check
var _ JobRepository = (*MongoJobRepo)(nil)
