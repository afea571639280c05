package kafka

import (
	"strings"
	"time"

	"github.com/Shopify/sarama"
)

type Config struct {
	Brokers             []string
	TopicPrefix         string // 事件写入 <prefix>.<kind>
	ProducerRetries     int
	ProducerCompression string // none/snappy/lz4/zstd
	Version             sarama.KafkaVersion
}

// BuildSaramaConfig 生产者配置：同步、WaitForAll、按 Key 哈希分区
func BuildSaramaConfig(c Config) *sarama.Config {
	cfg := sarama.NewConfig()
	if c.Version != (sarama.KafkaVersion{}) {
		cfg.Version = c.Version
	} else {
		cfg.Version = sarama.V2_1_0_0
	}

	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	if c.ProducerRetries <= 0 {
		c.ProducerRetries = 1
	}
	cfg.Producer.Retry.Max = c.ProducerRetries
	cfg.Producer.Partitioner = sarama.NewHashPartitioner // Key 控制分区，同一用户有序
	cfg.Producer.Compression = compression(c.ProducerCompression)

	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

func compression(s string) sarama.CompressionCodec {
	switch strings.ToLower(s) {
	case "snappy":
		return sarama.CompressionSnappy
	case "lz4":
		return sarama.CompressionLZ4
	case "zstd":
		return sarama.CompressionZSTD
	case "gzip":
		return sarama.CompressionGZIP
	default:
		return sarama.CompressionNone
	}
}
