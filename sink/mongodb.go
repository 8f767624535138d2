package sink

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Metadata struct {
	DeviceID     string  `bson:"device_id"`
	LocationName string  `bson:"location_name"`
	Lat          float64 `bson:"lat"`
	Lon          float64 `bson:"lon"`
}

// MongoDBReading keeps device identity under metadata, the layout a
// time-series collection expects for its metaField.
type MongoDBReading struct {
	Timestamp        time.Time `bson:"timestamp"`
	Metadata         Metadata  `bson:"metadata"`
	TempCabinet      float64   `bson:"temp_cabinet"`
	TempAmbient      float64   `bson:"temp_ambient"`
	DoorOpen         bool      `bson:"door_open"`
	DefrostOn        bool      `bson:"defrost_on"`
	CompressorPowerW float64   `bson:"compressor_power_w"`
	CompressorFreqHz float64   `bson:"compressor_freq_hz"`
	FrostLevel       float64   `bson:"frost_level"`
	COP              float64   `bson:"cop"`
	Fault            string    `bson:"fault"`
	FaultID          int       `bson:"fault_id"`
}

func document(r shared.Reading) (MongoDBReading, error) {
	ts, err := r.Time()
	if err != nil {
		return MongoDBReading{}, errors.Wrapf(err, "parse timestamp %q", r.Timestamp)
	}
	return MongoDBReading{
		Timestamp: ts,
		Metadata: Metadata{
			DeviceID:     r.DeviceID,
			LocationName: r.LocationName,
			Lat:          r.Lat,
			Lon:          r.Lon,
		},
		TempCabinet:      r.TempCabinet,
		TempAmbient:      r.TempAmbient,
		DoorOpen:         r.DoorOpen,
		DefrostOn:        r.DefrostOn,
		CompressorPowerW: r.CompressorPowerW,
		CompressorFreqHz: r.CompressorFreqHz,
		FrostLevel:       r.FrostLevel,
		COP:              r.COP,
		Fault:            r.Fault,
		FaultID:          r.FaultID,
	}, nil
}

type MongoDB struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func OpenMongoDB(ctx context.Context, cfg config.MongoDBConfig) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping mongodb")
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultTable
	}
	return &MongoDB{
		client:     client,
		collection: client.Database(cfg.Database).Collection(collection),
	}, nil
}

func (m *MongoDB) Name() string {
	return "mongodb"
}

func (m *MongoDB) Send(ctx context.Context, r shared.Reading) error {
	doc, err := document(r)
	if err != nil {
		return err
	}
	_, err = m.collection.InsertOne(ctx, doc)
	return errors.Wrap(err, "insert reading")
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
