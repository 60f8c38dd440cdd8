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

// ApplicationsCollection は応募を格納するコレクション名。
const ApplicationsCollection = "applications"

type resumeDocument struct {
	PublicID string `bson:"public_id"`
	URL      string `bson:"url"`
}

type roleRefDocument struct {
	User primitive.ObjectID `bson:"user"`
	Role string             `bson:"role"`
}

// applicationDocument はapplicationsコレクションのドキュメント表現。
type applicationDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	CoverLetter string             `bson:"coverLetter"`
	Phone       string             `bson:"phone"`
	Address     string             `bson:"address"`
	Resume      resumeDocument     `bson:"resume"`
	JobID       primitive.ObjectID `bson:"jobId"`
	ApplicantID roleRefDocument    `bson:"applicantID"`
	EmployerID  roleRefDocument    `bson:"employerID"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d *applicationDocument) toModel() *model.Application {
	return &model.Application{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Email:       d.Email,
		CoverLetter: d.CoverLetter,
		Phone:       d.Phone,
		Address:     d.Address,
		Resume:      model.ResumeFile{PublicID: d.Resume.PublicID, URL: d.Resume.URL},
		JobID:       d.JobID.Hex(),
		Applicant:   model.RoleRef{UserID: d.ApplicantID.User.Hex(), Role: model.Role(d.ApplicantID.Role)},
		Employer:    model.RoleRef{UserID: d.EmployerID.User.Hex(), Role: model.Role(d.EmployerID.Role)},
		CreatedAt:   d.CreatedAt,
	}
}

// MongoApplicationRepo はMongoDBを使用した応募リポジトリ。
type MongoApplicationRepo struct {
	coll *mongo.Collection
}

// NewMongoApplicationRepo はMongoApplicationRepoを生成する。
func NewMongoApplicationRepo(db *mongo.Database) *MongoApplicationRepo {
	return &MongoApplicationRepo{coll: db.Collection(ApplicationsCollection)}
}

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *MongoApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	var doc applicationDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return doc.toModel(), nil
}

// Create は応募を作成し、採番したIDをapp.IDに設定する。
func (r *MongoApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	ids, err := parseObjectIDs(app.JobID, app.Applicant.UserID, app.Employer.UserID)
	if err != nil {
		return err
	}

	doc := applicationDocument{
		ID:          primitive.NewObjectID(),
		Name:        app.Name,
		Email:       app.Email,
		CoverLetter: app.CoverLetter,
		Phone:       app.Phone,
		Address:     app.Address,
		Resume:      resumeDocument{PublicID: app.Resume.PublicID, URL: app.Resume.URL},
		JobID:       ids[0],
		ApplicantID: roleRefDocument{User: ids[1], Role: string(app.Applicant.Role)},
		EmployerID:  roleRefDocument{User: ids[2], Role: string(app.Employer.Role)},
		CreatedAt:   app.CreatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}

	app.ID = doc.ID.Hex()
	return nil
}

// ListByEmployer は指定雇用者宛ての応募を返す。
func (r *MongoApplicationRepo) ListByEmployer(ctx context.Context, employerID string) ([]*model.Application, error) {
	oid, err := primitive.ObjectIDFromHex(employerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, employerID)
	}
	return r.find(ctx, bson.M{"employerID.user": oid})
}

// ListByApplicant は指定求職者が送信した応募を返す。
func (r *MongoApplicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]*model.Application, error) {
	oid, err := primitive.ObjectIDFromHex(applicantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, applicantID)
	}
	return r.find(ctx, bson.M{"applicantID.user": oid})
}

// Delete は指定IDの応募を削除する。
func (r *MongoApplicationRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

func (r *MongoApplicationRepo) find(ctx context.Context, filter bson.M) ([]*model.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []applicationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}

	apps := make([]*model.Application, 0, len(docs))
	for i := range docs {
		apps = append(apps, docs[i].toModel())
	}
	return apps, nil
}

// parseObjectIDs は16進文字列のIDをまとめてObjectIDに変換する。
func parseObjectIDs(hexIDs ...string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, len(hexIDs))
	for i, h := range hexIDs {
		oid, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidID, h)
		}
		ids[i] = oid
	}
	return ids, nil
}

// compile-time interface check
var _ ApplicationRepository = (*MongoApplicationRepo)(nil)
