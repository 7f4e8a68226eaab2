package ledger

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreLedger stores one document per message in a collection.
// It suits deployments where a dedicated Redis instance is overkill.
type FirestoreLedger struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreLedger creates a new FirestoreLedger. The client's lifecycle is
// managed by the caller.
func NewFirestoreLedger(client *firestore.Client, collectionName string) (*FirestoreLedger, error) {
	if client == nil {
		return nil, errors.New("firestore client cannot be nil")
	}
	if collectionName == "" {
		return nil, errors.New("firestore collection name cannot be empty")
	}
	return &FirestoreLedger{
		client:     client,
		collection: collectionName,
	}, nil
}

// Record creates or overwrites the outcome document.
func (l *FirestoreLedger) Record(ctx context.Context, o Outcome) error {
	if o.MessageID == "" {
		return errors.New("outcome has no message id")
	}
	_, err := l.client.Collection(l.collection).Doc(o.MessageID).Set(ctx, o)
	if err != nil {
		return fmt.Errorf("failed to set outcome in firestore for message %s: %w", o.MessageID, err)
	}
	return nil
}

// Lookup retrieves an outcome document.
func (l *FirestoreLedger) Lookup(ctx context.Context, messageID string) (Outcome, error) {
	docSnap, err := l.client.Collection(l.collection).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Outcome{}, fmt.Errorf("message '%s': %w", messageID, ErrNotFound)
		}
		return Outcome{}, fmt.Errorf("firestore get failed for message %s: %w", messageID, err)
	}
	var o Outcome
	if err := docSnap.DataTo(&o); err != nil {
		return Outcome{}, fmt.Errorf("failed to unmarshal outcome for message %s: %w", messageID, err)
	}
	return o, nil
}

// Close is a no-op as the Firestore client's lifecycle is managed externally.
func (l *FirestoreLedger) Close() error {
	return nil
}
