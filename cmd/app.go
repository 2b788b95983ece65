package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/auth"
	"github.com/ukydev/fleetfix/internal/config"
	"github.com/ukydev/fleetfix/internal/db"
	"github.com/ukydev/fleetfix/internal/handlers"
	"github.com/ukydev/fleetfix/internal/listcache"
	"github.com/ukydev/fleetfix/internal/notify"
	"github.com/ukydev/fleetfix/internal/service"
	"github.com/ukydev/fleetfix/internal/upload"
)

// app holds the wired server and everything that must be closed with it.
type app struct {
	Router  *handlers.Router
	closers []func()
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	roster, err := config.LoadRoster(cfg.MechanicsFile)
	if err != nil {
		return nil, fmt.Errorf("load mechanics roster: %w", err)
	}

	checks := make(map[string]handlers.HealthCheck)

	var mongoClient *mongo.Client
	if cfg.Cache.Backend == "mongo" || cfg.Session.Backend == "mongo" {
		mongoClient, err = db.ConnectMongo(cfg.Mongo.URI)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("mongo disconnect failed")
			}
		})
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
		log.Info("connected to MongoDB")
	}

	store, err := cacheStore(ctx, cfg, mongoClient, a, checks)
	if err != nil {
		return nil, err
	}
	cache := listcache.New(store, listcache.WithTTL(cfg.Cache.TTL))

	sessions, err := sessionStore(ctx, cfg, mongoClient)
	if err != nil {
		return nil, err
	}

	uploader, err := uploadPipeline(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.MQTT.Broker != "" {
		mq, err := notify.NewMQTT(notify.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         1,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mq.Close)
		if err := mq.Subscribe(cache); err != nil {
			return nil, err
		}
		notifier = mq
	}

	maintenance := api.NewMaintenanceClient(cfg.MaintenanceAPIURL, cfg.HTTPTimeout)
	inspections := api.NewInspectionClient(cfg.APIURL, cfg.HTTPTimeout)
	tires := api.NewTireClient(cfg.MaintenanceAPIURL, cfg.HTTPTimeout)
	photos := api.NewPhotoClient(cfg.MaintenanceAPIURL, cfg.HTTPTimeout)
	remoteAuth := api.NewAuthClient(cfg.APIURL, cfg.HTTPTimeout)

	manager := auth.NewManager(auth.NewService(cfg.JWTSecret, cfg.JWTExpiry), remoteAuth, sessions, roster)

	a.Router = handlers.NewRouter(handlers.Deps{
		Auth: manager,
		Repairs: service.NewRepairService(maintenance, cache, roster, uploader, notifier, service.RepairOptions{
			QueryLimit: cfg.QueryLimit,
			PageSize:   cfg.PageSize,
		}),
		Photos:      service.NewPhotoService(photos, uploader),
		Tires:       service.NewTireService(tires, inspections, uploader),
		Inspections: service.NewInspectionService(inspections, uploader),
		Checks:      checks,
		Logger:      log.StandardLogger(),
	})
	return a, nil
}

func cacheStore(ctx context.Context, cfg *config.Config, mongoClient *mongo.Client, a *app, checks map[string]handlers.HealthCheck) (listcache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		rs, err := listcache.NewRedisStore(cfg.Cache.RedisURL, 2*cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rs.Close() })
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		checks["redis"] = rs.Ping
		return rs, nil
	case "mongo":
		coll := &db.MongoCacheCollection{
			Collection: mongoClient.Database(cfg.Mongo.Database).Collection("repair_cache"),
			Expiry:     2 * cfg.Cache.TTL,
		}
		if err := coll.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("cache indexes: %w", err)
		}
		return coll, nil
	default:
		return listcache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.TTL), nil
	}
}

func sessionStore(ctx context.Context, cfg *config.Config, mongoClient *mongo.Client) (auth.SessionStore, error) {
	if cfg.Session.Backend != "mongo" {
		return auth.NewMemorySessionStore(), nil
	}
	coll := &db.MongoSessionCollection{
		Collection: mongoClient.Database(cfg.Mongo.Database).Collection("sessions"),
	}
	if err := coll.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("session indexes: %w", err)
	}
	return coll, nil
}

func uploadPipeline(ctx context.Context, cfg *config.Config) (*upload.Pipeline, error) {
	var broker upload.Broker
	if cfg.Upload.Backend == "s3" {
		s3b, err := upload.NewS3Broker(ctx, upload.S3Config{
			Bucket:        cfg.Upload.S3Bucket,
			Region:        cfg.Upload.S3Region,
			Endpoint:      cfg.Upload.S3Endpoint,
			PublicBaseURL: cfg.Upload.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		broker = s3b
	} else {
		broker = upload.NewHTTPBroker(cfg.ImageAPIURL, cfg.HTTPTimeout)
	}
	return upload.NewPipeline(broker, nil), nil
}
