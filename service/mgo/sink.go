package mgo

import (
	"context"

	"NeuroQ/service/events"
	"NeuroQ/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollEvents = "session_events"
	CollTriage = "triage_results"
)

// Sink archives events. Triage results get their own collection so they
// can be queried per user without scanning chat traffic.
type Sink struct {
	events *mongo.Collection
	triage *mongo.Collection
}

func NewSink(db *mongo.Database) *Sink {
	return &Sink{
		events: db.Collection(CollEvents),
		triage: db.Collection(CollTriage),
	}
}

func (s *Sink) Name() string { return "mongo" }

// EnsureIndexes creates the lookup indexes; safe to call on every start.
func (s *Sink) EnsureIndexes(ctx context.Context) error {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "ts", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "ts", Value: -1}}},
	}
	if _, err := s.events.Indexes().CreateMany(ctx, idx); err != nil {
		return errs.WrapMsg(err, "create indexes", "coll", CollEvents)
	}
	if _, err := s.triage.Indexes().CreateOne(ctx, idx[0]); err != nil {
		return errs.WrapMsg(err, "create indexes", "coll", CollTriage)
	}
	return nil
}

func (s *Sink) Write(ctx context.Context, ev events.Event) error {
	coll := s.collection(ev.Kind)
	// _id 为事件 ID，重复投递只会命中同一文档
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": ev.ID}, ev, options.Replace().SetUpsert(true))
	if err != nil {
		return errs.WrapMsg(err, "mongo write", "coll", coll.Name(), "id", ev.ID)
	}
	return nil
}

func (s *Sink) collection(kind events.Kind) *mongo.Collection {
	if kind == events.KindTriage {
		return s.triage
	}
	return s.events
}
