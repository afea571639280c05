package mgo

import (
	"context"
	"os"
	"testing"
	"time"

	"NeuroQ/data/database/mgo/mongoutil"
	"NeuroQ/module/triage"
	"NeuroQ/service/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEventDocument(t *testing.T) {
	out := triage.NewEngine().Predict(triage.Input{Text: "I feel anxious and panicky"})
	ev := events.New(events.KindTriage, "42", nil, map[string]any{"outcome": out})

	raw, err := bson.Marshal(ev)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, ev.ID, doc["_id"])
	assert.Equal(t, "triage.result", doc["kind"])
	payload := doc["payload"].(bson.M)
	outcome := payload["outcome"].(bson.M)
	assert.Equal(t, "Anxiety", outcome["predicted_disorder"])
	assert.Equal(t, "classified", outcome["status"])
}

// 需要本地 MongoDB：NEUROQ_TEST_MONGO_URI=mongodb://localhost:27017
func TestSink_Mongo(t *testing.T) {
	uri := os.Getenv("NEUROQ_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("NEUROQ_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cli, err := mongoutil.NewMongoDB(ctx, &mongoutil.Config{Uri: uri, Database: "neuroq_test"})
	require.NoError(t, err)
	defer cli.Close(ctx)

	s := NewSink(cli.GetDB())
	require.NoError(t, s.EnsureIndexes(ctx))

	ev := events.New(events.KindSessionOpen, "42", "s1", map[string]any{"conn_id": "c1"})
	require.NoError(t, s.Write(ctx, ev))
	// redelivery is idempotent
	require.NoError(t, s.Write(ctx, ev))

	n, err := cli.GetDB().Collection(CollEvents).CountDocuments(ctx, bson.M{"_id": ev.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
