package config

import "time"

// DeviceConfig describes the MQTT bridge that carries app messages to and
// from the watch.
type DeviceConfig struct {
	BrokerURL   string        `yaml:"broker_url" env:"DEVICE_BROKER_URL" env-default:"tcp://localhost:1883"`
	ClientID    string        `yaml:"client_id" env-default:"relicwatch-relay"`
	Username    string        `yaml:"username" env:"DEVICE_USERNAME"`
	Password    string        `yaml:"password" env:"DEVICE_PASSWORD"`
	TopicPrefix string        `yaml:"topic_prefix" env-default:"relicwatch/watch"`
	QoS         byte          `yaml:"qos" env-default:"1"`
	AckTimeout  time.Duration `yaml:"ack_timeout" env-default:"30s"`
}

const (
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

type StoreConfig struct {
	Driver   string         `yaml:"driver" env:"STORE_DRIVER" env-default:"sqlite"`
	Path     string         `yaml:"path" env-default:"/var/lib/relicwatch/options.db"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

type DynamoDBConfig struct {
	Table    string `yaml:"table" env:"DYNAMODB_OPTIONS_TABLE" env-default:"relicwatch-options"`
	Region   string `yaml:"region" env:"AWS_REGION"`
	Endpoint string `yaml:"endpoint" env:"DYNAMODB_ENDPOINT"`
}
