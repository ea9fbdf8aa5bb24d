// Package seed bootstraps the backend's document database with the fixed
// administrator account, mirroring what operators previously ran by hand
// against the users collection.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AdminEmail is the fixed address the bootstrap admin is created under.
	AdminEmail = "admin@school.edu"
	// AdminPassword is the initial password; operators change it after first login.
	AdminPassword = "password123"

	usersCollection = "users"
	bcryptCost      = 10
	connectTimeout  = 10 * time.Second
)

type adminUser struct {
	ID                 primitive.ObjectID `bson:"_id"`
	Email              string             `bson:"email"`
	PasswordHash       string             `bson:"password_hash"`
	FullName           string             `bson:"full_name"`
	AvatarURL          string             `bson:"avatar_url"`
	Role               string             `bson:"role"`
	OrganizationalUnit string             `bson:"organizational_unit"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

// Admin summarizes an admin-role document for reporting.
type Admin struct {
	Email    string `bson:"email"`
	FullName string `bson:"full_name"`
}

// Result reports what EnsureAdmin found and did.
type Result struct {
	Created bool
	Admins  []Admin
}

// EnsureAdmin inserts the fixed admin account if no user with AdminEmail
// exists, then reports every admin-role user in the database.
func EnsureAdmin(ctx context.Context, uri, dbName string) (Result, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return Result{}, fmt.Errorf("connect to mongodb: %w", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	if err := client.Ping(connectCtx, nil); err != nil {
		return Result{}, fmt.Errorf("ping mongodb: %w", err)
	}

	users := client.Database(dbName).Collection(usersCollection)

	var res Result
	err = users.FindOne(ctx, bson.M{"email": AdminEmail}).Err()
	switch {
	case err == nil:
		// already present, nothing to insert
	case errors.Is(err, mongo.ErrNoDocuments):
		if err := insertAdmin(ctx, users); err != nil {
			return Result{}, err
		}
		res.Created = true
	default:
		return Result{}, fmt.Errorf("look up admin user: %w", err)
	}

	admins, err := listAdmins(ctx, users)
	if err != nil {
		return Result{}, err
	}
	res.Admins = admins
	return res, nil
}

func insertAdmin(ctx context.Context, users *mongo.Collection) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	doc := adminUser{
		ID:                 primitive.NewObjectID(),
		Email:              AdminEmail,
		PasswordHash:       string(hash),
		FullName:           "Admin User",
		Role:               "admin",
		OrganizationalUnit: "Administration",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := users.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}

func listAdmins(ctx context.Context, users *mongo.Collection) ([]Admin, error) {
	cursor, err := users.Find(ctx, bson.M{"role": "admin"})
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	defer cursor.Close(ctx)

	var admins []Admin
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("decode admin users: %w", err)
	}
	return admins, nil
}
