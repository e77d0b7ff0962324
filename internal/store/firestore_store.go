package store

import (
	"context"
	"net/url"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collections and keys one-to-one onto Firestore collections and
// document IDs.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Get(ctx context.Context, collection, key string) (Document, error) {
	snap, err := s.doc(collection, key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return snapshotToDocument(snap)
}

func (s *FirestoreStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	snaps, err := s.client.Collection(collection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return snapshotsToDocuments(snaps)
}

func (s *FirestoreStore) Set(ctx context.Context, collection, key string, data map[string]any) error {
	data, err := normalize(data)
	if err != nil {
		return err
	}
	// no MergeAll: Set replaces the whole document
	_, err = s.doc(collection, key).Set(ctx, data)
	return err
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.doc(collection, key).Delete(ctx)
	return err
}

func (s *FirestoreStore) CreateIfAbsent(ctx context.Context, collection, key string, data map[string]any) error {
	data, err := normalize(data)
	if err != nil {
		return err
	}
	_, err = s.doc(collection, key).Create(ctx, data)
	if status.Code(err) == codes.AlreadyExists {
		return ErrAlreadyExists
	}
	return err
}

func (s *FirestoreStore) QueryByField(ctx context.Context, collection, field, value string) ([]Document, error) {
	if err := validateField(field); err != nil {
		return nil, err
	}
	snaps, err := s.client.Collection(collection).Where(field, "==", value).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return snapshotsToDocuments(snaps)
}

// Ping reads a document that normally does not exist; NotFound still proves the
// backend answered.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	_, err := s.client.Collection("_health").Doc("ping").Get(ctx)
	if err == nil || status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) doc(collection, key string) *firestore.DocumentRef {
	return s.client.Collection(collection).Doc(EscapeDocumentID(key))
}

// EscapeDocumentID makes key safe as a Firestore document ID ("/" is reserved).
func EscapeDocumentID(key string) string {
	return url.PathEscape(key)
}

// UnescapeDocumentID reverses EscapeDocumentID; IDs written by other tools pass through.
func UnescapeDocumentID(id string) string {
	key, err := url.PathUnescape(id)
	if err != nil {
		return id
	}
	return key
}

func snapshotToDocument(snap *firestore.DocumentSnapshot) (Document, error) {
	data, err := normalize(snap.Data())
	if err != nil {
		return Document{}, err
	}
	return Document{Key: UnescapeDocumentID(snap.Ref.ID), Data: data}, nil
}

func snapshotsToDocuments(snaps []*firestore.DocumentSnapshot) ([]Document, error) {
	out := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		d, err := snapshotToDocument(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
