package global

import (
	"context"
	"time"

	"NeuroQ/data/database/mgo/mongoutil"
	"NeuroQ/global/config"
	"NeuroQ/logger"
	"NeuroQ/service/events"
	ka "NeuroQ/service/kafka"
	mgoSrv "NeuroQ/service/mgo"
	"NeuroQ/service/natsx"
	"NeuroQ/service/pg"
	"NeuroQ/service/storage"
	rdbx "NeuroQ/service/storage/redis"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Deps holds the optional infrastructure clients. Every field may be nil:
// a dependency with an empty address is disabled, and one that fails to
// connect is logged and skipped.
type Deps struct {
	NodeID   string
	Redis    *redis.Client
	Presence *storage.Presence
	Nats     *natsx.Client
	Relay    *natsx.Relay
	Kafka    sarama.SyncProducer
	Mongo    *mongoutil.Client
	Postgres *pgxpool.Pool
	Bus      *events.Bus
}

func Setup(ctx context.Context, cfg config.Config) *Deps {
	d := &Deps{NodeID: "gw-" + uuid.NewString()[:8]}
	var sinks []events.Sink

	if s := d.ConfigRedis(ctx, cfg); s != nil {
		sinks = append(sinks, s)
	}
	if s := d.ConfigNats(cfg); s != nil {
		sinks = append(sinks, s)
	}
	if s := d.ConfigKafka(cfg); s != nil {
		sinks = append(sinks, s)
	}
	if s := d.ConfigMgo(ctx, cfg); s != nil {
		sinks = append(sinks, s)
	}
	if s := d.ConfigPostgres(ctx, cfg); s != nil {
		sinks = append(sinks, s)
	}

	d.Bus = events.NewBus(cfg.Session.EventBuffer, sinks...)
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("[bootstrap] event sinks", zap.Strings("sinks", names), zap.String("node_id", d.NodeID))
	return d
}

func (d *Deps) ConfigRedis(ctx context.Context, cfg config.Config) events.Sink {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb, err := rdbx.NewClient(ctx, rdbx.Config{
		Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB, PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		logger.Warn("[bootstrap] redis disabled", zap.Error(err))
		return nil
	}
	d.Redis = rdb
	d.Presence = storage.NewPresence(rdb, d.NodeID, cfg.Redis.PresenceTTL)
	return storage.NewStreamSink(rdb, cfg.Redis.StreamMax)
}

func (d *Deps) ConfigNats(cfg config.Config) events.Sink {
	if len(cfg.Nats.Servers) == 0 {
		return nil
	}
	nc, err := natsx.NewClient(natsx.Config{
		Servers:  cfg.Nats.Servers,
		Name:     cfg.Nats.Name,
		User:     cfg.Nats.User,
		Password: cfg.Nats.Password,
	})
	if err != nil {
		logger.Warn("[bootstrap] nats disabled", zap.Error(err))
		return nil
	}
	d.Nats = nc
	if cfg.Nats.RelaySubject != "" {
		if d.Relay, err = natsx.NewRelay(nc, cfg.Nats.RelaySubject); err != nil {
			logger.Warn("[bootstrap] nats relay disabled", zap.Error(err))
		}
	}
	sink, err := natsx.NewEventSink(nc, cfg.Nats.EventSubject, natsx.ParseMode(cfg.Nats.Mode))
	if err != nil {
		logger.Warn("[bootstrap] nats event sink disabled", zap.Error(err))
		return nil
	}
	return sink
}

func (d *Deps) ConfigKafka(cfg config.Config) events.Sink {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}
	p, err := ka.NewSyncProducer(ka.Config{
		Brokers:             cfg.Kafka.Brokers,
		TopicPrefix:         cfg.Kafka.TopicPrefix,
		ProducerRetries:     cfg.Kafka.Retries,
		ProducerCompression: cfg.Kafka.Compression,
	})
	if err != nil {
		logger.Warn("[bootstrap] kafka disabled", zap.Error(err))
		return nil
	}
	d.Kafka = p
	return ka.NewEventSink(p, cfg.Kafka.TopicPrefix)
}

func (d *Deps) ConfigMgo(ctx context.Context, cfg config.Config) events.Sink {
	if cfg.Mongo.Uri == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cli, err := mongoutil.NewMongoDB(ctx, &mongoutil.Config{
		Uri:         cfg.Mongo.Uri,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		MaxRetry:    cfg.Mongo.MaxRetry,
	})
	if err != nil {
		logger.Warn("[bootstrap] mongo disabled", zap.Error(err))
		return nil
	}
	d.Mongo = cli
	sink := mgoSrv.NewSink(cli.GetDB())
	if err := sink.EnsureIndexes(ctx); err != nil {
		logger.Warn("[bootstrap] mongo indexes", zap.Error(err))
	}
	return sink
}

func (d *Deps) ConfigPostgres(ctx context.Context, cfg config.Config) events.Sink {
	if cfg.Postgres.DSN == "" {
		return nil
	}
	pool, err := pg.NewPool(ctx, pg.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
	if err != nil {
		logger.Warn("[bootstrap] postgres disabled", zap.Error(err))
		return nil
	}
	sink := pg.NewSink(pool)
	if err := sink.EnsureSchema(ctx); err != nil {
		logger.Warn("[bootstrap] postgres disabled", zap.Error(err))
		pool.Close()
		return nil
	}
	d.Postgres = pool
	return sink
}

// Close drains the bus first so queued events still reach the sinks.
func (d *Deps) Close(ctx context.Context) error {
	var err error
	if d.Bus != nil {
		err = multierr.Append(err, d.Bus.Close(ctx))
	}
	if d.Nats != nil {
		err = multierr.Append(err, d.Nats.Close())
	}
	if d.Kafka != nil {
		err = multierr.Append(err, d.Kafka.Close())
	}
	if d.Mongo != nil {
		err = multierr.Append(err, d.Mongo.Close(ctx))
	}
	if d.Postgres != nil {
		d.Postgres.Close()
	}
	if d.Redis != nil {
		err = multierr.Append(err, d.Redis.Close())
	}
	return err
}
